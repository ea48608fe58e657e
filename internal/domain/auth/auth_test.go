package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"registracion/internal/core/apperror"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken(17, "operario", 3, []string{"registracion.ver"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour+30*time.Minute), expiresAt, time.Minute)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "17", user.UserID)
	assert.Equal(t, "operario", user.Username)
	assert.Equal(t, 3, user.RoleID)
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	token, _, err := issuer.GenerateAccessToken(1, "x", 1, nil)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)

	expired := NewJWTService(JWTConfig{Secret: "secret-a", AccessTokenTTL: -time.Minute})
	token, _, err = expired.GenerateAccessToken(1, "x", 1, nil)
	require.NoError(t, err)
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)
}

type memSupervisors map[string]Supervisor

func (m memSupervisors) GetByUsername(_ context.Context, username string) (*Supervisor, error) {
	if username == "broken" {
		return nil, errors.New("connection refused")
	}
	s, ok := m[username]
	if !ok {
		return nil, apperror.NewNotFound("user", username)
	}
	return &s, nil
}

func TestVerifySupervisor(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	v := NewSupervisorVerifier(memSupervisors{
		"jefe": {UserID: 1, Username: "jefe", PasswordHash: string(hash)},
	})
	ctx := context.Background()

	assert.NoError(t, v.VerifySupervisor(ctx, " jefe ", "s3cret"))

	err = v.VerifySupervisor(ctx, "jefe", "wrong")
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))

	err = v.VerifySupervisor(ctx, "nobody", "s3cret")
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))

	err = v.VerifySupervisor(ctx, "broken", "s3cret")
	assert.ErrorContains(t, err, "connection refused")
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("abc")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abc")))
}
