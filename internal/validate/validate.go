// Package validate contains the pure input validation and sanitization
// helpers used by every service before anything reaches the backend.
//
// Validators never return Go errors; they return structured results listing
// every violated rule, so a signup form can show all problems at once. The
// service layer converts a failed result into an apperror.ValidationFailed.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const (
	// MaxEmailLength is the RFC 5321 ceiling on a full address.
	MaxEmailLength = 254

	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// Result is the outcome of a validation check. Reasons lists every violated
// rule when Valid is false.
type Result struct {
	Valid   bool
	Reasons []string
}

func fail(reasons ...string) Result {
	return Result{Valid: false, Reasons: reasons}
}

func ok() Result {
	return Result{Valid: true}
}

// Message joins all violation reasons into a single user-facing sentence.
func (r Result) Message() string {
	return strings.Join(r.Reasons, "; ")
}

// Email checks the shape of an email address: one regex plus a length cap.
func Email(email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return fail("email is required")
	}
	if len(email) > MaxEmailLength {
		return fail("email must be 254 characters or less")
	}
	if !emailPattern.MatchString(email) {
		return fail("email format is invalid")
	}
	return ok()
}

// Password enforces the account password policy: 8–128 characters with at
// least one uppercase letter, one lowercase letter and one digit. Every
// violated rule is reported, not just the first.
func Password(password string) Result {
	var reasons []string

	if len(password) < MinPasswordLength {
		reasons = append(reasons, "password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		reasons = append(reasons, "password must be 128 characters or less")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain an uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain a lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain a digit")
	}

	if len(reasons) > 0 {
		return Result{Valid: false, Reasons: reasons}
	}
	return ok()
}

// UUID checks that s is a well-formed RFC 4122 UUID (versions 1–5). All
// externally supplied identifiers are checked with this before they reach the
// backend, so malformed IDs are rejected without a network round trip.
func UUID(s string) Result {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return fail("identifier is not a valid UUID")
	}
	if v := u.Version(); v < 1 || v > 5 {
		return fail("identifier is not a valid UUID")
	}
	return ok()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeHTML escapes the characters that can open an HTML context. Applied
// to titles, excerpts and comment content before they are stored.
func SanitizeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var (
	scriptBlockPattern  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURIPattern        = regexp.MustCompile(`(?i)javascript\s*:`)
	dataURIPattern      = regexp.MustCompile(`(?i)data\s*:`)
)

// SanitizeRichText strips script blocks, inline event-handler attributes and
// javascript:/data: URI schemes from post content. It is deliberately
// permissive otherwise: it is not a full HTML sanitizer, and content is
// still rendered as text/markdown rather than raw HTML.
func SanitizeRichText(s string) string {
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	s = jsURIPattern.ReplaceAllString(s, "")
	s = dataURIPattern.ReplaceAllString(s, "")
	return s
}
