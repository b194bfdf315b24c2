package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/onbscore/internal/domain/notes"
)

const maxNotesBytes = 64 << 10

// NotesHandler turns meeting notes into recommendations.
type NotesHandler struct {
	checks []notes.Check
}

// NewNotesHandler creates a handler using the default checks.
func NewNotesHandler() *NotesHandler {
	return &NotesHandler{checks: notes.DefaultChecks()}
}

type notesRequest struct {
	Text string `json:"text"`
}

type notesResponse struct {
	Recommendations []string `json:"recommendations"`
}

// HandleRecommendations handles POST /api/notes/recommendations.
func (h *NotesHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotesBytes)).Decode(&req); err != nil {
		writeFailure(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	recs := notes.RecommendWith(req.Text, h.checks)
	if recs == nil {
		recs = []string{}
	}
	writeJSON(w, http.StatusOK, notesResponse{Recommendations: recs})
}
