package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/augmentum/backend/internal/dashboard"
	"github.com/augmentum/backend/internal/export"
	"github.com/augmentum/backend/internal/inbox"
	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"github.com/augmentum/backend/internal/service"
	"github.com/google/uuid"
)

// InboxController is the dashboard state the admin API drives.
// *dashboard.Controller implements it.
type InboxController interface {
	State() dashboard.State
	Snapshot() dashboard.Snapshot
	Messages() []*model.ContactMessage
	SetViewParams(p model.ViewParams)
	Stats() model.Stats
	SelectMessage(id string) bool
	ClearSelection()
	Selected() *model.ContactMessage
	SetStatus(ctx context.Context, id string, status model.Status) error
	DeleteMessage(ctx context.Context, id string) error
	Refresh(ctx context.Context) error
	Export(w io.Writer) error
}

var _ InboxController = (*dashboard.Controller)(nil)

// AdminInboxHandler serves /api/admin/*. Routes must be wrapped in
// auth.RequireSession (or auth.DevAuth).
type AdminInboxHandler struct {
	inbox InboxController
	brand string
	now   func() time.Time
}

// NewAdminInboxHandler creates an AdminInboxHandler. brand prefixes the
// export filename.
func NewAdminInboxHandler(inbox InboxController, brand string) *AdminInboxHandler {
	return &AdminInboxHandler{inbox: inbox, brand: brand, now: time.Now}
}

type listResponse struct {
	State    dashboard.State         `json:"state"`
	Messages []*model.ContactMessage `json:"messages"`
	Shown    int                     `json:"shown"`
	Total    int                     `json:"total"`
}

// List handles GET /api/admin/messages?q=&status=&sort=.
func (h *AdminInboxHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := model.ViewParams{
		Search: q.Get("q"),
		Status: q.Get("status"),
		Sort:   model.SortKey(q.Get("sort")),
	}.Normalize()
	if params.Status != model.StatusFilterAll {
		if _, err := model.ParseStatus(params.Status); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
	}
	h.inbox.SetViewParams(params)

	// state と total を同じ時点のコピーから求める
	snap := h.inbox.Snapshot()
	shown := inbox.Derive(snap.Messages, params)
	writeJSON(w, http.StatusOK, listResponse{
		State:    snap.State,
		Messages: shown,
		Shown:    len(shown),
		Total:    len(snap.Messages),
	})
}

// Stats handles GET /api/admin/stats.
func (h *AdminInboxHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.inbox.Stats())
}

type selectionRequest struct {
	ID string `json:"id"`
}

type selectionResponse struct {
	Message *model.ContactMessage `json:"message"`
}

// GetSelection handles GET /api/admin/selection.
func (h *AdminInboxHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionResponse{Message: h.inbox.Selected()})
}

// PutSelection handles PUT /api/admin/selection. An empty id clears it.
func (h *AdminInboxHandler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.ID == "" {
		h.inbox.ClearSelection()
		writeJSON(w, http.StatusOK, selectionResponse{})
		return
	}
	if !validID(req.ID) {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if !h.inbox.SelectMessage(req.ID) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Message: h.inbox.Selected()})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/messages/{id}/status.
func (h *AdminInboxHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	if err := h.inbox.SetStatus(r.Context(), id, status); err != nil {
		writeInboxError(w, err)
		return
	}
	slog.Info("message status updated", "id", id, "status", status)
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

// Delete handles DELETE /api/admin/messages/{id}.
func (h *AdminInboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := h.inbox.DeleteMessage(r.Context(), id); err != nil {
		writeInboxError(w, err)
		return
	}
	slog.Info("message deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"ok": "true"})
}

// Refresh handles POST /api/admin/refresh.
func (h *AdminInboxHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.inbox.Refresh(r.Context()); err != nil {
		writeInboxError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state": h.inbox.State(),
		"total": len(h.inbox.Messages()),
	})
}

// Export handles GET /api/admin/export.
func (h *AdminInboxHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.inbox.Export(&buf); err != nil {
		slog.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export_failed")
		return
	}
	name := export.Filename(h.brand, h.now())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// writeInboxError maps controller errors to status codes.
func writeInboxError(w http.ResponseWriter, err error) {
	var terr *model.TransitionError
	var rerr *service.RemoteError
	switch {
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, "invalid_transition")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.As(err, &rerr):
		writeError(w, http.StatusBadGateway, "remote_error")
	default:
		slog.Error("inbox operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
