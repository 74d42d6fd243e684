package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/middleware"
	"github.com/hongminglow/express-accounts/internal/result"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Malformed JSON body."
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty."
		}
		respond.Failure(w, result.NewError(result.CodeInvalidInput, result.TypeInputValidationError, result.Message{
			Message: msg,
			Action:  "Check the request body.",
		}))
		return false
	}
	return true
}

// handled writes the failure or the fixed 500 for res. It reports true when
// the caller still has to write the success response.
func handled[T any](w http.ResponseWriter, r *http.Request, log logging.Logger, res result.Result[T], err error) bool {
	if err != nil {
		log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		respond.InternalError(w)
		return false
	}
	if !res.IsSuccess() {
		respond.Failure(w, res.Err())
		return false
	}
	return true
}
