package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/action"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/source/sqlsource"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, code, message string) {
	writeJSON(w, logger, status, ErrorBody{
		Error:     message,
		Code:      code,
		RequestID: RequestIDFrom(r.Context()),
	})
}

// serveErrorToHTTP maps widget errors to HTTP responses.
func serveErrorToHTTP(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, action.ErrUnknownAction):
		writeError(w, r, logger, http.StatusBadRequest, "UNKNOWN_ACTION", err.Error())
	case errors.Is(err, action.ErrNotAllowed):
		writeError(w, r, logger, http.StatusForbidden, "ACTION_NOT_ALLOWED", err.Error())
	case errors.Is(err, sqlsource.ErrUnknownColumn):
		writeError(w, r, logger, http.StatusBadRequest, "UNKNOWN_COLUMN", err.Error())
	case errors.Is(err, query.ErrNotFound):
		writeError(w, r, logger, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		logger.Error("serve widget", zap.Error(err), zap.String("request_id", RequestIDFrom(r.Context())))
		writeError(w, r, logger, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
