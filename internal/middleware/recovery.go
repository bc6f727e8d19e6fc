package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type errorEnvelope struct {
	Success   bool        `json:"success"`
	Error     errorDetail `json:"error"`
	Timestamp string      `json:"timestamp"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Recovery turns a handler panic into the JSON internal-error envelope. It
// logs through the request logger when RequestLogger ran first.
func Recovery(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				panicLog := zerolog.Ctx(r.Context())
				if panicLog.GetLevel() == zerolog.Disabled {
					withID := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
					panicLog = &withID
				}
				panicLog.Error().
					Interface("recover", rvr).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("ip", r.RemoteAddr).
					Msg("Panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(errorEnvelope{
					Error: errorDetail{
						Code:    "INTERNAL_ERROR",
						Message: "Internal server error",
						Type:    "internal",
					},
					Timestamp: time.Now().UTC().Format(time.RFC3339),
				})
			}()

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
