package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/logging"
)

// Recover turns a panicking handler into the fixed 500 response. The panic
// value and stack are logged only.
func Recover(log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error(r.Context(), "panic serving request",
					"panic", fmt.Sprint(p),
					"path", r.URL.Path,
					"request_id", RequestIDFrom(r.Context()),
					"stack", string(debug.Stack()),
				)
				if !rec.written {
					respond.InternalError(w)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
