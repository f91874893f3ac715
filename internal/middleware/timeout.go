package middleware

import (
	"net/http"
	"time"
)

// Timeout ограничивает время обработки запроса. Фоновые проверки живут
// в пуле воркеров и под него не попадают.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.TimeoutHandler(next, timeout, "Request timeout")
	}
}
