package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/dataset"
)

// BucketsHandler serves the categorized view of a session.
type BucketsHandler struct {
	deps Dependencies
}

// NewBucketsHandler creates a new buckets handler.
func NewBucketsHandler(deps Dependencies) *BucketsHandler {
	return &BucketsHandler{deps: deps}
}

type rowView struct {
	Row   int                      `json:"row"`
	Cells map[string]dataset.Value `json:"cells"`
}

type scopeView struct {
	Owner    string `json:"owner,omitempty"`
	Unscoped bool   `json:"unscoped"`
}

type bucketsResponse struct {
	Scope   scopeView            `json:"scope"`
	Members []string             `json:"members"`
	Total   int                  `json:"total"`
	Columns []string             `json:"columns"`
	Counts  map[string]int       `json:"counts"`
	Buckets map[string][]rowView `json:"buckets"`
}

// HandleBuckets handles GET /api/sessions/{id}/buckets?member=.
func (h *BucketsHandler) HandleBuckets(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	view, err := h.deps.Buckets(r.Context(), id, chi.URLParam(r, "id"), r.URL.Query().Get("member"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp := bucketsResponse{
		Scope:   scopeView{Owner: view.Scope.Owner, Unscoped: view.Scope.Unscoped},
		Members: id.Members(),
		Total:   view.Result.Total(),
		Columns: view.Result.Columns(),
		Counts:  make(map[string]int, len(category.Buckets())),
		Buckets: make(map[string][]rowView, len(category.Buckets())),
	}
	for _, b := range category.Buckets() {
		ds := view.Result.Get(b)
		rows := make([]rowView, 0, ds.Len())
		for _, row := range ds.Rows() {
			rows = append(rows, rowView{Row: row.Index(), Cells: row.Map()})
		}
		resp.Counts[string(b)] = ds.Len()
		resp.Buckets[string(b)] = rows
	}
	writeJSON(w, http.StatusOK, resp)
}
