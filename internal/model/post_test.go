package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTime(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty content still reads one minute", "", 1},
		{"one word", "hello", 1},
		{"exactly 200 words", strings.Repeat("word ", 200), 1},
		{"201 words rounds up", strings.Repeat("word ", 201), 2},
		{"400 words", strings.Repeat("word ", 400), 2},
		{"1000 words", strings.Repeat("word ", 1000), 5},
		{"whitespace only", "   \n\t  ", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadTime(tt.content))
		})
	}
}

func TestExcerpt(t *testing.T) {
	t.Run("short content passes through", func(t *testing.T) {
		assert.Equal(t, "short post", Excerpt("short post"))
	})

	t.Run("long content is cut at 200 characters", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		got := Excerpt(long)
		assert.Len(t, got, ExcerptLength)
	})

	t.Run("cut counts runes, not bytes", func(t *testing.T) {
		long := strings.Repeat("é", 300)
		got := Excerpt(long)
		assert.Equal(t, ExcerptLength, len([]rune(got)))
	})
}

func TestPostRowToDomain(t *testing.T) {
	t.Run("complete row", func(t *testing.T) {
		img := "https://cdn.example.com/x.jpg"
		row := PostRow{
			ID:            "post-1",
			Title:         "Title",
			Content:       "Body",
			Excerpt:       "Body",
			FeaturedImage: &img,
			AuthorID:      "user-1",
			Published:     true,
			ReadTime:      3,
			Author: &ProfileRow{
				ID:          "user-1",
				DisplayName: "Writer",
			},
		}

		post, err := row.ToDomain()
		require.NoError(t, err)
		assert.Equal(t, "post-1", post.ID)
		assert.Equal(t, img, post.FeaturedImage)
		assert.Equal(t, 3, post.ReadTime)
		require.NotNil(t, post.Author)
		assert.Equal(t, "Writer", post.Author.Name)
	})

	t.Run("missing id fails loudly", func(t *testing.T) {
		_, err := PostRow{AuthorID: "user-1"}.ToDomain()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing id")
	})

	t.Run("missing author_id fails loudly", func(t *testing.T) {
		_, err := PostRow{ID: "post-1"}.ToDomain()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing author_id")
	})

	t.Run("bad embedded author fails the row", func(t *testing.T) {
		row := PostRow{
			ID:       "post-1",
			AuthorID: "user-1",
			Author:   &ProfileRow{DisplayName: "no id"},
		}
		_, err := row.ToDomain()
		assert.Error(t, err)
	})

	t.Run("zero read_time is recomputed from content", func(t *testing.T) {
		row := PostRow{
			ID:       "post-1",
			AuthorID: "user-1",
			Content:  strings.Repeat("word ", 400),
		}
		post, err := row.ToDomain()
		require.NoError(t, err)
		assert.Equal(t, 2, post.ReadTime)
	})

	t.Run("row without embedded author has nil Author", func(t *testing.T) {
		post, err := PostRow{ID: "post-1", AuthorID: "user-1"}.ToDomain()
		require.NoError(t, err)
		assert.Nil(t, post.Author)
	})
}

func TestPostsToDomainFailsOnFirstBadRow(t *testing.T) {
	rows := []PostRow{
		{ID: "a", AuthorID: "u"},
		{ID: "", AuthorID: "u"},
	}
	_, err := PostsToDomain(rows)
	assert.Error(t, err)
}
