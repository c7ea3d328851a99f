package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Respaldo-api/internal/application/auth"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Respaldo-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Respaldo-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "respaldo-api-test"
	testOperator  = "ops@respaldo.local"
	testPassword  = "clave-del-operador"
)

// tokenForRole genera un JWT firmado con el secreto de la API y el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, "usuario-de-prueba", "", role, testIssuer, 60)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// securedApp router completo con el login real del operador y el catálogo simulado.
type securedApp struct {
	app     *fiber.App
	catalog *mockCatalog
}

func newSecuredApp(t *testing.T) *securedApp {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	login := auth.NewAdminAuthUseCase(
		auth.Operator{Email: testOperator, PasswordHash: string(hash)},
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 15, Issuer: testIssuer},
	)

	s := &securedApp{app: fiber.New(), catalog: &mockCatalog{}}
	apphttp.Router(s.app, apphttp.RouterDeps{
		Auth:      login,
		Creator:   &mockCreator{},
		Restorer:  &mockRestorer{},
		Catalog:   s.catalog,
		Retention: &mockRetention{},
		JWTSecret: testJWTSecret,
	})
	t.Cleanup(func() { s.catalog.AssertExpectations(t) })
	return s
}

func (s *securedApp) login(t *testing.T, email, password string) (int, dto.LoginResponse) {
	t.Helper()
	body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.LoginResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// listBackups GET /api/admin/backups con el header Authorization dado (vacío = sin header).
func (s *securedApp) listBackups(t *testing.T, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/backups", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login del operador → endpoints de respaldo
// ──────────────────────────────────────────────────────────────────────────────

func TestAuth_TokenDelLoginAbreLosRespaldos(t *testing.T) {
	s := newSecuredApp(t)
	s.catalog.On("List", anyCtx, entity.BackupType("")).Return([]*dto.BackupResponse{}, nil).Once()

	status, out := s.login(t, testOperator, testPassword)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.RoleAdmin, out.Role)
	assert.Equal(t, 15*60, out.ExpiresIn)
	require.NotEmpty(t, out.Token)

	status, body := s.listBackups(t, "Bearer "+out.Token)
	assert.Equal(t, http.StatusOK, status, "el token emitido por el login debe dar acceso a /api/admin/backups")
	assert.JSONEq(t, `[]`, body)
}

func TestAuth_LoginConClaveIncorrecta(t *testing.T) {
	s := newSecuredApp(t)

	status, _ := s.login(t, testOperator, "otra-clave")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.login(t, "intruso@respaldo.local", testPassword)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_RolDistintoDeAdminRecibe403(t *testing.T) {
	s := newSecuredApp(t)

	status, body := s.listBackups(t, tokenForRole(t, "owner"))
	assert.Equal(t, http.StatusForbidden, status, "un owner de tenant no administra respaldos")
	assert.Contains(t, body, "FORBIDDEN")
	assert.Contains(t, body, "acceso denegado: rol owner")
}

func TestAuth_TokenSinRolRecibe401(t *testing.T) {
	s := newSecuredApp(t)

	status, body := s.listBackups(t, tokenForRole(t, ""))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "MISSING_ROLE")
}

func TestAuth_TokenAusenteOInvalido(t *testing.T) {
	s := newSecuredApp(t)
	otherSecret, err := pkgjwt.Generate("otro-secreto", "x", "", entity.RoleAdmin, testIssuer, 60)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema Basic", "Basic b3BzOmNsYXZl", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"firmado con otro secreto", "Bearer " + otherSecret, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.listBackups(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Contains(t, body, tc.code)
		})
	}
}
