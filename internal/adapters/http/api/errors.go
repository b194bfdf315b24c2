package api

import (
	"errors"
	"net/http"

	"github.com/okian/onbscore/internal/adapters/ingest"
	"github.com/okian/onbscore/internal/adapters/repository"
	service "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/columns"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingIdentity = errors.New("missing identity headers")
	ErrMissingFile     = errors.New("multipart field \"file\" is required")
)

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{ErrMissingIdentity, http.StatusBadRequest, "invalid_identity"},
	{access.ErrInvalidIdentity, http.StatusBadRequest, "invalid_identity"},
	{ErrMissingFile, http.StatusBadRequest, "missing_file"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{access.ErrNotInTeam, http.StatusForbidden, "not_in_team"},
	{repository.ErrNotFound, http.StatusNotFound, "session_not_found"},
	{service.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "upload_too_large"},
	{columns.ErrMissingColumns, http.StatusUnprocessableEntity, "missing_columns"},
	{ingest.ErrUnsupportedFormat, http.StatusUnprocessableEntity, "unsupported_format"},
	{ingest.ErrCorruptFile, http.StatusUnprocessableEntity, "corrupt_file"},
	{ingest.ErrEmptyFile, http.StatusUnprocessableEntity, "empty_file"},
	{ingest.ErrTooManyRows, http.StatusUnprocessableEntity, "too_many_rows"},
	{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
}

// writeFailure maps err to a status and code in one place.
func writeFailure(w http.ResponseWriter, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		resp := errorResponse{Code: k.code, Message: err.Error()}
		var missing *columns.MissingColumnsError
		if errors.As(err, &missing) {
			resp.FoundColumns = missing.Found
			resp.Missing = missing.MissingNames()
		}
		writeJSON(w, k.status, resp)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
