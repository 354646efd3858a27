package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"simple address", "reader@example.com", true},
		{"subdomain", "a.reader@mail.example.co.uk", true},
		{"plus tag", "reader+tag@example.com", true},
		{"empty", "", false},
		{"missing at", "readerexample.com", false},
		{"missing domain", "reader@", false},
		{"missing tld", "reader@example", false},
		{"spaces inside", "rea der@example.com", false},
		{"surrounding whitespace is trimmed", "  reader@example.com  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Email(tt.email).Valid)
		})
	}
}

func TestEmailLengthCap(t *testing.T) {
	local := strings.Repeat("a", 250)
	assert.False(t, Email(local+"@example.com").Valid, "address over 254 chars must fail")
}

func TestPassword(t *testing.T) {
	t.Run("meets all rules", func(t *testing.T) {
		res := Password("Abcdef12")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Reasons)
	})

	t.Run("too short", func(t *testing.T) {
		res := Password("Ab1")
		assert.False(t, res.Valid)
		assert.Contains(t, res.Message(), "at least 8 characters")
	})

	t.Run("reports every violated rule at once", func(t *testing.T) {
		res := Password("abc")
		assert.False(t, res.Valid)
		// short, no uppercase, no digit
		assert.Len(t, res.Reasons, 3)
	})

	t.Run("no digit", func(t *testing.T) {
		res := Password("Abcdefgh")
		assert.False(t, res.Valid)
		assert.Contains(t, res.Message(), "digit")
	})

	t.Run("over max length", func(t *testing.T) {
		res := Password("A1" + strings.Repeat("a", 130))
		assert.False(t, res.Valid)
		assert.Contains(t, res.Message(), "128 characters or less")
	})
}

func TestUUID(t *testing.T) {
	assert.True(t, UUID("550e8400-e29b-41d4-a716-446655440000").Valid)
	assert.True(t, UUID("  550e8400-e29b-41d4-a716-446655440000  ").Valid)
	assert.False(t, UUID("").Valid)
	assert.False(t, UUID("not-a-uuid").Valid)
	assert.False(t, UUID("550e8400e29b41d4a716446655440000zzzz").Valid)
	// Version nibble 0 is outside RFC 4122 versions 1-5.
	assert.False(t, UUID("550e8400-e29b-01d4-a716-446655440000").Valid)
}

func TestSanitizeHTML(t *testing.T) {
	out := SanitizeHTML(`<img src=x onerror="alert(1)">`)
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Contains(t, out, "&lt;img")

	assert.Equal(t, "a &amp; b", SanitizeHTML("a & b"))
	assert.Equal(t, "&#x27;quoted&#x27;", SanitizeHTML("'quoted'"))
	assert.Equal(t, "path&#x2F;to", SanitizeHTML("path/to"))
}

func TestSanitizeRichText(t *testing.T) {
	t.Run("strips script blocks", func(t *testing.T) {
		out := SanitizeRichText("before <script>alert(1)</script> after")
		assert.NotContains(t, strings.ToLower(out), "<script")
		assert.Contains(t, out, "before")
		assert.Contains(t, out, "after")
	})

	t.Run("strips event handlers", func(t *testing.T) {
		out := SanitizeRichText(`<img src="x" onerror="steal()">`)
		assert.NotContains(t, strings.ToLower(out), "onerror")
		assert.Contains(t, out, `<img src="x"`)
	})

	t.Run("strips javascript URIs", func(t *testing.T) {
		out := SanitizeRichText(`<a href="javascript:alert(1)">x</a>`)
		assert.NotContains(t, strings.ToLower(out), "javascript:")
	})

	t.Run("strips data URIs", func(t *testing.T) {
		out := SanitizeRichText(`<a href="data:text/html;base64,xxxx">x</a>`)
		assert.NotContains(t, strings.ToLower(out), "data:")
	})

	t.Run("leaves plain markdown alone", func(t *testing.T) {
		in := "# Title\n\nSome **bold** text with a [link](https://example.com)."
		assert.Equal(t, in, SanitizeRichText(in))
	})
}
