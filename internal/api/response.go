package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/soaringjerry/psyscore/internal/services"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   services.ErrorCode `json:"error"`
	Message string             `json:"message"`
}

// StatusFor maps a service error code to its HTTP status.
func StatusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid, services.ErrorAnswerCountMismatch, services.ErrorAnswerOutOfRange:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorInstrumentNotFound:
		return http.StatusNotFound
	case services.ErrorStorageTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError logs storage failures with their cause and replies with the
// service message only.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: services.ErrorStorageUnavailable, Message: "internal error"})
		return
	}
	status := StatusFor(se.Code)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request failed", "path", r.URL.Path, "code", se.Code, "error", err)
	}
	writeJSON(w, status, ErrorBody{Error: se.Code, Message: se.Message})
}
