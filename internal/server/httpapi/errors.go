package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timegrid/timegrid/internal/common"
)

// writeError maps the engine's sentinel errors to HTTP status codes and a
// machine-readable reason code. Unrecognized errors are reported as
// internal without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, common.ErrorValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, common.ErrInvalidToken):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, common.ErrorPermissionDenied):
		status, code = http.StatusForbidden, "permission_denied"
	case errors.Is(err, common.ErrorNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorStatusConflict):
		status, code = http.StatusConflict, "status_conflict"
	case errors.Is(err, common.ErrorNoOpenWeek):
		status, code = http.StatusUnprocessableEntity, "no_open_week"
	default:
		s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Code: code, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
