package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds API handlers. The handler's context is cancelled at the
// deadline, so a long flatten stops at the next item boundary.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	body := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}
