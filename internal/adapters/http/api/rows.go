package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/scoring"
	"github.com/okian/onbscore/internal/domain/timeline"
)

// RowsHandler serves single-row lookups.
type RowsHandler struct {
	deps Dependencies
}

// NewRowsHandler creates a new rows handler.
func NewRowsHandler(deps Dependencies) *RowsHandler {
	return &RowsHandler{deps: deps}
}

type scoreResponse struct {
	Found  bool            `json:"found"`
	Row    int             `json:"row"`
	Bucket string          `json:"bucket,omitempty"`
	Report *scoring.Report `json:"report,omitempty"`
}

type deadlineResponse struct {
	Found     bool                `json:"found"`
	Row       int                 `json:"row"`
	Remaining *timeline.Remaining `json:"remaining,omitempty"`
	Label     string              `json:"label,omitempty"`
}

// lookup resolves the row; a miss or a member outside the team is reported
// as not found rather than an error.
func (h *RowsHandler) lookup(w http.ResponseWriter, r *http.Request) (service.Lookup, bool) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 0 {
		writeFailure(w, fmt.Errorf("%w: row must be a non-negative integer", ErrBadRequest))
		return service.Lookup{}, false
	}
	id, _ := IdentityFrom(r.Context())
	res, err := h.deps.Lookup(r.Context(), id, chi.URLParam(r, "id"), r.URL.Query().Get("member"), row)
	if errors.Is(err, access.ErrNotInTeam) {
		return service.Lookup{Row: row}, true
	}
	if err != nil {
		writeFailure(w, err)
		return service.Lookup{}, false
	}
	return res, true
}

// HandleScore handles GET /api/sessions/{id}/rows/{row}/score.
func (h *RowsHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	resp := scoreResponse{Found: res.Found, Row: res.Row}
	if res.Found {
		resp.Bucket = string(res.Bucket)
		resp.Report = &res.Report
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeadline handles GET /api/sessions/{id}/rows/{row}/deadline.
func (h *RowsHandler) HandleDeadline(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	resp := deadlineResponse{Found: res.Found, Row: res.Row}
	if res.Found {
		resp.Remaining = &res.Deadline
		resp.Label = res.Deadline.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
