package model

import "time"

// Like is a (post, user) pair. The backend enforces at most one per pair via
// a unique constraint; the client never checks referential integrity itself.
type Like struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark is a (post, user) pair with the same uniqueness invariant as Like.
type Bookmark struct {
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeRow is the backend's likes table shape. Bookmarks share it structurally.
type LikeRow struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is the decorative engagement data shown alongside a post.
//
// Known distinguishes real zeros from fetch failures: stats reads swallow
// errors so a transient failure never blocks rendering the post itself, and
// the UI can show "–" instead of "0" when Known is false.
type Stats struct {
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
	Liked        bool  `json:"liked"`
	Bookmarked   bool  `json:"bookmarked"`
	Known        bool  `json:"known"`
}
