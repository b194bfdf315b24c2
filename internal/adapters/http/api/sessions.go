package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/onbscore/internal/app"
)

// SessionsHandler handles uploads and session removal.
type SessionsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies, maxUploadBytes int64) *SessionsHandler {
	return &SessionsHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

type uploadResponse struct {
	SessionID string            `json:"session_id"`
	FileName  string            `json:"file_name"`
	Format    string            `json:"format"`
	Rows      int               `json:"rows"`
	BlankRows int               `json:"blank_rows"`
	Columns   []string          `json:"columns"`
	Resolved  map[string]string `json:"resolved"`
	ExpiresAt string            `json:"expires_at,omitempty"`
}

// HandleUpload handles POST /api/sessions with a multipart "file" field.
func (h *SessionsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, fmt.Errorf("%w: limit is %d bytes", service.ErrUploadTooLarge, h.maxUploadBytes))
			return
		}
		writeFailure(w, ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	up, err := h.deps.Open(r.Context(), id, header.Filename, file)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resolved := make(map[string]string, len(up.Resolved))
	for k, col := range up.Resolved {
		resolved[string(k)] = col
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		SessionID: up.SessionID,
		FileName:  up.FileName,
		Format:    up.Format,
		Rows:      up.Rows,
		BlankRows: up.BlankRows,
		Columns:   up.Columns,
		Resolved:  resolved,
		ExpiresAt: timestamp(up.ExpiresAt),
	})
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	if err := h.deps.Close(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
