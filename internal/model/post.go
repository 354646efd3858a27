package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ExcerptLength is how much of the content becomes the excerpt when the
	// author doesn't supply one.
	ExcerptLength = 200

	// wordsPerMinute is the assumed reading speed behind ReadTime.
	wordsPerMinute = 200
)

// Post is the domain shape for a blog post.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	AuthorID      string    `json:"authorId"`
	Author        *User     `json:"author,omitempty"`
	Published     bool      `json:"published"`
	ReadTime      int       `json:"readTime"` // minutes, recomputed whenever content changes
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ReadTime estimates reading time in minutes: word count over 200 wpm,
// rounded up, never below 1.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Excerpt returns the first ExcerptLength characters of content, used when
// the author leaves the excerpt empty.
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength])
}

// PostRow is the backend's posts table shape. The profiles field is the
// embedded author resource when the query selects it.
type PostRow struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt"`
	FeaturedImage *string     `json:"featured_image"`
	AuthorID      string      `json:"author_id"`
	Published     bool        `json:"published"`
	ReadTime      int         `json:"read_time"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Author        *ProfileRow `json:"profiles"`
}

// ToDomain converts a post row to a Post, resolving the embedded author when
// present. Rows without id or author_id are rejected.
func (r PostRow) ToDomain() (Post, error) {
	if r.ID == "" {
		return Post{}, fmt.Errorf("model: post row missing id")
	}
	if r.AuthorID == "" {
		return Post{}, fmt.Errorf("model: post row %s missing author_id", r.ID)
	}

	p := Post{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Excerpt:   r.Excerpt,
		AuthorID:  r.AuthorID,
		Published: r.Published,
		ReadTime:  r.ReadTime,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.FeaturedImage != nil {
		p.FeaturedImage = *r.FeaturedImage
	}
	if p.ReadTime < 1 {
		p.ReadTime = ReadTime(r.Content)
	}
	if r.Author != nil {
		author, err := r.Author.ToDomain()
		if err != nil {
			return Post{}, fmt.Errorf("model: post row %s: %w", r.ID, err)
		}
		p.Author = &author
	}
	return p, nil
}

// PostsToDomain converts a slice of rows, failing on the first bad row.
func PostsToDomain(rows []PostRow) ([]Post, error) {
	posts := make([]Post, 0, len(rows))
	for _, r := range rows {
		p, err := r.ToDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}
