package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/service"
)

// maxSubmitBody caps the public form payload; the message itself is limited
// to service.MaxMessageLength runes.
const maxSubmitBody = 64 << 10

// ContactHandler handles the public contact form.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// submitRequest is the expected JSON body for POST /api/contact.
type submitRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Company *string `json:"company"`
	Message string  `json:"message"`
}

// Submit handles POST /api/contact.
// name, email and message are required; company is optional. The stored
// status is always "new" whatever the client sends.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Message: req.Message,
	}

	if err := h.contactService.Submit(r.Context(), msg); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Code)
			return
		}
		slog.Error("contact submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submit_failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"ok": "true"})
}
