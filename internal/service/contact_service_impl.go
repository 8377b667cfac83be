package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
)

// MaxMessageLength is the longest accepted message body, in runes.
const MaxMessageLength = 5000

// contactServiceImpl is the production implementation of ContactService.
// Every store failure is logged here and returned as a *RemoteError.
type contactServiceImpl struct {
	repo repository.ContactRepository
	now  func() time.Time
}

// NewContactService creates a ContactService backed by the given repository.
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactServiceImpl{repo: repo, now: time.Now}
}

// Submit stores a new contact message. Name, email and message are
// required; status is always forced to "new".
func (s *contactServiceImpl) Submit(ctx context.Context, msg *model.ContactMessage) error {
	if err := normalizeSubmission(msg); err != nil {
		return err
	}
	msg.Status = model.StatusNew
	msg.UpdatedAt = nil
	if err := s.repo.Save(ctx, msg); err != nil {
		return s.remote("save", err)
	}
	slog.Info("contact message received", "id", msg.ID)
	return nil
}

func normalizeSubmission(msg *model.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Company != nil {
		c := strings.TrimSpace(*msg.Company)
		if c == "" {
			msg.Company = nil
		} else {
			msg.Company = &c
		}
	}

	switch {
	case msg.Name == "":
		return &ValidationError{Field: "name", Code: "name_required"}
	case msg.Email == "":
		return &ValidationError{Field: "email", Code: "email_required"}
	case msg.Message == "":
		return &ValidationError{Field: "message", Code: "message_required"}
	}
	if addr, err := mail.ParseAddress(msg.Email); err != nil || addr.Address != msg.Email {
		return &ValidationError{Field: "email", Code: "invalid_email"}
	}
	if len([]rune(msg.Message)) > MaxMessageLength {
		return &ValidationError{Field: "message", Code: "message_too_long"}
	}
	return nil
}

// List returns every contact message, newest first.
func (s *contactServiceImpl) List(ctx context.Context) ([]*model.ContactMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.remote("list", err)
	}
	return msgs, nil
}

// Get returns a single contact message.
func (s *contactServiceImpl) Get(ctx context.Context, id string) (*model.ContactMessage, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.remote("get", err)
	}
	return msg, nil
}

// UpdateStatus changes the status of a contact message. The returned time
// is the updated_at value written to the store.
func (s *contactServiceImpl) UpdateStatus(ctx context.Context, id string, status model.Status) (time.Time, error) {
	// timestamptz はマイクロ秒精度
	at := s.now().UTC().Truncate(time.Microsecond)
	if err := s.repo.UpdateStatus(ctx, id, status, at); err != nil {
		return time.Time{}, s.remote("update_status", err)
	}
	return at, nil
}

// Delete removes a contact message.
func (s *contactServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.remote("delete", err)
	}
	return nil
}

// Subscribe registers onChange on the store's change feed.
func (s *contactServiceImpl) Subscribe(ctx context.Context, onChange func()) (repository.Unsubscribe, error) {
	unsub, err := s.repo.Subscribe(ctx, onChange)
	if err != nil {
		return nil, s.remote("subscribe", err)
	}
	return unsub, nil
}

func (s *contactServiceImpl) remote(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		slog.Warn("contact store: no such message", "op", op)
	} else {
		slog.Error("contact store call failed", "op", op, "error", err)
	}
	return &RemoteError{Op: op, Err: err}
}
