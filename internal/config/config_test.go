package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "KEYCLOAK_BASE_URL", "KEYCLOAK_REALM", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS", "MAX_UPLOAD_MB", "BRIDGE_LEGACY_PLAINTEXT", "HTTP_READ_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "8090", cfg.BridgePort)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.True(t, cfg.BridgeLegacyPlaintext)
	assert.Equal(t, "http://localhost:8180/realms/ems/protocol/openid-connect/token", cfg.TokenEndpoint())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("KEYCLOAK_BASE_URL", "https://sso.corp.io/")
	t.Setenv("KEYCLOAK_REALM", "staff")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.corp.io, ,https://b.corp.io")
	t.Setenv("BRIDGE_LEGACY_PLAINTEXT", "false")
	t.Setenv("HTTP_WRITE_TIMEOUT", "1m")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://sso.corp.io/realms/staff", cfg.Issuer())
	assert.Equal(t, []string{"https://a.corp.io", "https://b.corp.io"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.BridgeLegacyPlaintext)
	assert.Equal(t, time.Minute, cfg.WriteTimeout)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	cfg := AppConfig{DatabaseURL: "postgres://localhost/ems", JWTSecret: "s", BcryptCost: 10}
	require.NoError(t, cfg.Validate())

	bad := AppConfig{BcryptCost: 2}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}
