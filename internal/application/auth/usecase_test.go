package auth

import (
	"context"
	"testing"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUseCase(t *testing.T) *AdminAuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminAuthUseCase(
		Operator{Email: "ops@respaldo.local", PasswordHash: string(hash)},
		JWTConfig{Secret: "secret", ExpMinutes: 30, Issuer: "respaldo-api"},
	)
}

func TestLogin_OK(t *testing.T) {
	uc := newTestUseCase(t)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "OPS@respaldo.local", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "admin", out.Role)
	assert.Equal(t, 1800, out.ExpiresIn)

	claims, err := jwt.Parse("secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "ops@respaldo.local", claims.UserID)
}

func TestLogin_Rechazado(t *testing.T) {
	uc := newTestUseCase(t)

	cases := map[string]dto.LoginRequest{
		"password incorrecto": {Email: "ops@respaldo.local", Password: "otra"},
		"email desconocido":   {Email: "x@respaldo.local", Password: "clave-segura"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Login(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestLogin_SinOperadorConfigurado(t *testing.T) {
	uc := NewAdminAuthUseCase(Operator{}, JWTConfig{Secret: "secret", ExpMinutes: 5})

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "", Password: ""})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
