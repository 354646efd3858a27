package model

import (
	"fmt"
	"time"
)

// Comment is the domain shape for a comment on a post. Comments can be
// deleted by their author but never edited.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Author    *User     `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentRow is the backend's comments table shape.
type CommentRow struct {
	ID        string      `json:"id"`
	PostID    string      `json:"post_id"`
	AuthorID  string      `json:"author_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Author    *ProfileRow `json:"profiles"`
}

// ToDomain converts a comment row, resolving the embedded author when
// present.
func (r CommentRow) ToDomain() (Comment, error) {
	if r.ID == "" {
		return Comment{}, fmt.Errorf("model: comment row missing id")
	}
	if r.PostID == "" || r.AuthorID == "" {
		return Comment{}, fmt.Errorf("model: comment row %s missing post_id or author_id", r.ID)
	}

	c := Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.Author != nil {
		author, err := r.Author.ToDomain()
		if err != nil {
			return Comment{}, fmt.Errorf("model: comment row %s: %w", r.ID, err)
		}
		c.Author = &author
	}
	return c, nil
}

// CommentsToDomain converts a slice of rows, failing on the first bad row.
func CommentsToDomain(rows []CommentRow) ([]Comment, error) {
	comments := make([]Comment, 0, len(rows))
	for _, r := range rows {
		c, err := r.ToDomain()
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
