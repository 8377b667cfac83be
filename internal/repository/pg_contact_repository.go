package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Unsubscribe stops a change-feed subscription and waits for it to finish.
type Unsubscribe func()

// ContactRepository defines the persistence interface for contact messages.
// It is defined here (in repository) to avoid an import cycle with service.
type ContactRepository interface {
	Save(ctx context.Context, msg *model.ContactMessage) error
	List(ctx context.Context) ([]*model.ContactMessage, error)
	FindByID(ctx context.Context, id string) (*model.ContactMessage, error)
	UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error
	Delete(ctx context.Context, id string) error
	// Subscribe calls onChange for every insert/update/delete on the table.
	// Notifications carry no payload; callers re-list.
	Subscribe(ctx context.Context, onChange func()) (Unsubscribe, error)
}

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	pool *pgxpool.Pool
	feed *ChangeFeed
}

// NewPgContactRepository creates a PgContactRepository backed by the given pool.
// feed may be nil, in which case Subscribe fails.
func NewPgContactRepository(pool *pgxpool.Pool, feed *ChangeFeed) *PgContactRepository {
	return &PgContactRepository{pool: pool, feed: feed}
}

// Ensure PgContactRepository implements ContactRepository at compile time.
var _ ContactRepository = (*PgContactRepository)(nil)

const contactSelectCols = `id, name, email, company, message, status, created_at, updated_at`

// Save inserts a new contact_messages row and populates msg.ID and CreatedAt
// from the database RETURNING clause. An empty company is stored as NULL.
func (r *PgContactRepository) Save(ctx context.Context, msg *model.ContactMessage) error {
	var company *string
	if c := strings.TrimSpace(msg.CompanyName()); c != "" {
		company = &c
	}
	msg.Company = company
	return r.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, company, message, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		msg.Name, msg.Email, company, msg.Message, msg.Status,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// List returns every contact message, most recent first.
func (r *PgContactRepository) List(ctx context.Context) ([]*model.ContactMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactSelectCols+` FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Company, &m.Message, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// FindByID returns a single message or ErrNotFound.
func (r *PgContactRepository) FindByID(ctx context.Context, id string) (*model.ContactMessage, error) {
	var m model.ContactMessage
	err := r.pool.QueryRow(ctx,
		`SELECT `+contactSelectCols+` FROM contact_messages WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Company, &m.Message, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateStatus sets status and updated_at on the matching row.
func (r *PgContactRepository) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_messages SET status = $1, updated_at = $2 WHERE id = $3`,
		status, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the matching row.
func (r *PgContactRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe registers onChange on the table's change feed.
func (r *PgContactRepository) Subscribe(ctx context.Context, onChange func()) (Unsubscribe, error) {
	if r.feed == nil {
		return nil, errors.New("change feed not configured")
	}
	return r.feed.Subscribe(ctx, onChange)
}
