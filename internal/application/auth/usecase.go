package auth

import (
	"context"
	"strings"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Operator credenciales del operador de plataforma.
type Operator struct {
	Email        string
	PasswordHash string // bcrypt
}

// AdminAuthUseCase login del operador de plataforma. Emite tokens con rol admin,
// el único autorizado sobre los endpoints de respaldo.
type AdminAuthUseCase struct {
	operator Operator
	jwtCfg   JWTConfig
}

// NewAdminAuthUseCase construye el caso de uso de auth.
func NewAdminAuthUseCase(operator Operator, jwtCfg JWTConfig) *AdminAuthUseCase {
	return &AdminAuthUseCase{operator: operator, jwtCfg: jwtCfg}
}

// Login verifica email/password y devuelve un JWT.
// Sin operador configurado todo login es rechazado.
func (uc *AdminAuthUseCase) Login(_ context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if uc.operator.Email == "" || uc.operator.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if !strings.EqualFold(strings.TrimSpace(in.Email), uc.operator.Email) {
		// Igual se compara un hash para no revelar por tiempo si el email existe.
		_ = bcrypt.CompareHashAndPassword([]byte(uc.operator.PasswordHash), []byte(in.Password))
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(uc.operator.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.operator.Email, "", entity.RoleAdmin, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		Role:      entity.RoleAdmin,
	}, nil
}
