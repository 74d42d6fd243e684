package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hongminglow/express-accounts/internal/result"
)

// InternalErrorMessage is the only detail clients see for unhandled faults.
const InternalErrorMessage = "An internal server error has occurred."

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    any           `json:"data,omitempty"`
	Error   *result.Error `json:"error,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// Failure writes a business failure with the status its type maps to.
func Failure(w http.ResponseWriter, e *result.Error) {
	status := StatusFor(e)
	write(w, status, Envelope{Code: status, Message: http.StatusText(status), Error: e})
}

// InternalError writes the fixed 500 body.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, InternalErrorMessage)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps a failure to its HTTP status.
func StatusFor(e *result.Error) int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case result.TypeInputValidationError:
		return http.StatusBadRequest
	case result.TypeUnauthorized:
		return http.StatusUnauthorized
	case result.TypeBusinessLogicValidationError:
		if e.Code == result.CodeEmailAlreadyExists {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
