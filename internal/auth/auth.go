// Package auth разбирает access-токены, выпущенные auth-сервисом, и переносит пользователя через контекст.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/internal/models"
)

var (
	// ErrInvalidToken — подпись, алгоритм, issuer/audience или claims не прошли проверку.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

type accessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Parser валидирует HS256 access-токены.
type Parser struct {
	secret   []byte
	issuer   string
	audience []string
}

// NewParser создаёт парсер по секции auth конфигурации.
func NewParser(cfg config.AuthConfig) *Parser {
	return &Parser{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Parse проверяет токен и возвращает пользователя. Пустая роль трактуется как user.
func (p *Parser) Parse(tokenStr string) (models.Actor, error) {
	const op = "auth/Parse"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if len(p.audience) > 0 {
		opts = append(opts, jwt.WithAudience(p.audience...))
	}

	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return p.secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return models.Actor{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return models.Actor{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil || uid == uuid.Nil {
		return models.Actor{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.Actor{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return models.Actor{UserID: uid, Role: role}, nil
}

// Issue подписывает токен для actor. Используется в тестах и локальных утилитах.
func (p *Parser) Issue(actor models.Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := accessClaims{
		UserID: actor.UserID.String(),
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    p.issuer,
			Subject:   actor.UserID.String(),
			Audience:  jwt.ClaimStrings(p.audience),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

type ctxKey struct{}

// WithActor кладёт аутентифицированного пользователя в контекст.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom достаёт пользователя из контекста; ok=false для анонимного запроса.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(models.Actor)
	if !ok || a.UserID == uuid.Nil {
		return models.Actor{}, false
	}

	return a, true
}
