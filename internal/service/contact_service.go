package service

import (
	"context"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
)

// ContactService defines the business logic for contact form submissions
// and the operator-side access to the message store.
type ContactService interface {
	// Submit validates and stores a new contact message with status "new".
	// The msg.ID and CreatedAt will be populated by the implementation.
	Submit(ctx context.Context, msg *model.ContactMessage) error

	// List returns every message, most recent first.
	List(ctx context.Context) ([]*model.ContactMessage, error)

	// Get returns one message, or a *RemoteError wrapping ErrNotFound.
	Get(ctx context.Context, id string) (*model.ContactMessage, error)

	// UpdateStatus sets the status and update timestamp of one message and
	// returns the timestamp that was stored.
	UpdateStatus(ctx context.Context, id string, status model.Status) (time.Time, error)

	// Delete removes one message.
	Delete(ctx context.Context, id string) error

	// Subscribe calls onChange whenever the message table changes.
	Subscribe(ctx context.Context, onChange func()) (repository.Unsubscribe, error)
}
