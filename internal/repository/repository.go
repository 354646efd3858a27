// Package repository defines the persistence interfaces for client-local
// state. Drafts live on the local machine, not the hosted backend: autosave
// must work offline, and an unpublished draft never leaves the device until
// the author publishes it.
package repository

import (
	"context"

	"github.com/sakif/blogia/internal/model"
)

// DraftRepository stores editor drafts locally.
type DraftRepository interface {
	// Save inserts the draft, or updates it when ID is already known.
	// A draft with an empty ID gets one assigned.
	Save(ctx context.Context, draft *model.Draft) error
	// Get returns the draft by id.
	Get(ctx context.Context, id string) (*model.Draft, error)
	// GetByPost returns the draft tied to a published post, if any.
	GetByPost(ctx context.Context, postID string) (*model.Draft, error)
	// List returns all drafts, most recently updated first.
	List(ctx context.Context) ([]model.Draft, error)
	// Delete removes a draft. Deleting an unknown id is an error.
	Delete(ctx context.Context, id string) error
}
