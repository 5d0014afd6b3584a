package middleware

import (
	"net/http"
	"strings"

	"github.com/pribylovaa/go-social-shop/internal/auth"
	"github.com/pribylovaa/go-social-shop/internal/models"
	logctx "github.com/pribylovaa/go-social-shop/pkg/log"
)

// TokenParser — проверка access-токена (реализуется auth.Parser).
type TokenParser interface {
	Parse(token string) (models.Actor, error)
}

// Auth извлекает Bearer-токен из Authorization, проверяет его и кладёт
// актора в контекст. Отсутствующий или невалидный токен оставляет запрос
// анонимным: решение об отказе принимает хендлер.
func Auth(p TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || p == nil {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := p.Parse(token)
			if err != nil {
				logctx.From(r.Context()).Debug("auth_token_rejected", "err", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithActor(r.Context(), actor)
			ctx = logctx.With(ctx, "user_id", actor.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
