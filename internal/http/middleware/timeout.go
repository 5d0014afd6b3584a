package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-social-shop/pkg/log"
)

// Timeout ограничивает обработку запроса дедлайном d (обычно timeouts.service).
// Уже существующий дедлайн не продлевается; d <= 0 отключает мидлвар.
// Истечение дедлайна фиксируется в логе: ответ пишет хендлер (504 через errors.WriteError).
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(ctx).Warn("request_deadline_exceeded",
					"path", r.URL.Path,
					"timeout", d.String(),
				)
			}
		})
	}
}
