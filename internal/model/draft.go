package model

import "time"

// Draft is a client-local editor autosave record. Drafts never leave the
// machine; they exist so unsaved writing survives a crash or a dropped
// connection. Publishing turns a draft into a Post via the posts service.
type Draft struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId,omitempty"` // set when editing an existing post
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}
