package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blogia/internal/apperror"
	"github.com/sakif/blogia/internal/model"
	"github.com/sakif/blogia/internal/repository"
)

// Compile-time check that *DB implements the draft repository.
var _ repository.DraftRepository = (*DB)(nil)

// Save inserts the draft, or replaces it when the ID already exists. A draft
// without an ID gets one assigned, and UpdatedAt is always bumped.
func (db *DB) Save(ctx context.Context, draft *model.Draft) error {
	if draft.ID == "" {
		draft.ID = xid.New().String()
	}
	draft.UpdatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO drafts (id, post_id, title, content, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   post_id = excluded.post_id,
		   title = excluded.title,
		   content = excluded.content,
		   updated_at = excluded.updated_at`,
		draft.ID,
		draft.PostID,
		draft.Title,
		draft.Content,
		draft.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving draft: %w", err)
	}
	return nil
}

// Get returns the draft by id.
func (db *DB) Get(ctx context.Context, id string) (*model.Draft, error) {
	var d model.Draft
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, post_id, title, content, updated_at
		 FROM drafts
		 WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.PostID, &d.Title, &d.Content, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("draft", id)
		}
		return nil, fmt.Errorf("sqlite: getting draft %s: %w", id, err)
	}
	return &d, nil
}

// GetByPost returns the draft tied to a published post, if any.
func (db *DB) GetByPost(ctx context.Context, postID string) (*model.Draft, error) {
	var d model.Draft
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, post_id, title, content, updated_at
		 FROM drafts
		 WHERE post_id = ?
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		postID,
	).Scan(&d.ID, &d.PostID, &d.Title, &d.Content, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("draft", postID)
		}
		return nil, fmt.Errorf("sqlite: getting draft for post %s: %w", postID, err)
	}
	return &d, nil
}

// List returns all drafts, most recently updated first.
func (db *DB) List(ctx context.Context) ([]model.Draft, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, title, content, updated_at
		 FROM drafts
		 ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		var d model.Draft
		if err := rows.Scan(&d.ID, &d.PostID, &d.Title, &d.Content, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning draft row: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating drafts: %w", err)
	}
	return drafts, nil
}

// Delete removes a draft by id.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM drafts WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting draft %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("draft", id)
	}
	return nil
}
