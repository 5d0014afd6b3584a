package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(config.AuthConfig{
		JWTSecret: "secret",
		Issuer:    "auth-service",
		Audience:  []string{"api-gateway"},
	})
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	actor := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}

	tok, err := p.Issue(actor, time.Minute, time.Now())
	require.NoError(t, err)

	got, err := p.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, actor, got)
}

func TestParse_EmptyRoleIsUser(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	tok, err := p.Issue(models.Actor{UserID: uuid.New()}, time.Minute, time.Now())
	require.NoError(t, err)

	got, err := p.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, got.Role)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	tok, err := p.Issue(models.Actor{UserID: uuid.New()}, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = p.Parse(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	now := time.Now()

	// Чужой секрет.
	other := NewParser(config.AuthConfig{JWTSecret: "other", Issuer: "auth-service", Audience: []string{"api-gateway"}})
	tok, err := other.Issue(models.Actor{UserID: uuid.New()}, time.Minute, now)
	require.NoError(t, err)
	_, err = p.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Чужой issuer.
	wrongIss := NewParser(config.AuthConfig{JWTSecret: "secret", Issuer: "evil", Audience: []string{"api-gateway"}})
	tok, err = wrongIss.Issue(models.Actor{UserID: uuid.New()}, time.Minute, now)
	require.NoError(t, err)
	_, err = p.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Неизвестная роль.
	tok, err = p.Issue(models.Actor{UserID: uuid.New(), Role: "root"}, time.Minute, now)
	require.NoError(t, err)
	_, err = p.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Битый uid.
	claims := accessClaims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			Issuer:    "auth-service",
			Audience:  jwt.ClaimStrings{"api-gateway"},
		},
	}
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Мусор.
	_, err = p.Parse("a.b.c")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	_, ok := ActorFrom(context.Background())
	require.False(t, ok)

	a := models.Actor{UserID: uuid.New(), Role: models.RoleUser}
	got, ok := ActorFrom(WithActor(context.Background(), a))
	require.True(t, ok)
	require.Equal(t, a, got)

	_, ok = ActorFrom(WithActor(context.Background(), models.Actor{}))
	require.False(t, ok)
}
