package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	BridgePort  string
	Environment string
	LogLevel    string

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Identity provider (Keycloak)
	KeycloakBaseURL      string
	KeycloakRealm        string
	KeycloakClientID     string
	KeycloakClientSecret string
	RealmPublicKey       string
	JWTSecret            string
	VerifyIssuer         bool

	BcryptCost         int
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration

	// Identity bridge
	BridgeComponentID     string
	BridgeSharedSecret    string
	BridgeLegacyPlaintext bool
}

func Load() AppConfig {
	_ = godotenv.Load() // load .env if present

	return AppConfig{
		Port:        getEnv("PORT", "8080"),
		BridgePort:  getEnv("BRIDGE_PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 1)),

		KeycloakBaseURL:      strings.TrimRight(getEnv("KEYCLOAK_BASE_URL", "http://localhost:8180"), "/"),
		KeycloakRealm:        getEnv("KEYCLOAK_REALM", "ems"),
		KeycloakClientID:     getEnv("KEYCLOAK_CLIENT_ID", "employee-management"),
		KeycloakClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		RealmPublicKey:       os.Getenv("KEYCLOAK_REALM_PUBLIC_KEY"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		VerifyIssuer:         getBool("JWT_VERIFY_ISSUER", false),

		BcryptCost:         getInt("BCRYPT_COST", 10),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxUploadBytes:     int64(getInt("MAX_UPLOAD_MB", 10)) << 20,
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),

		BridgeComponentID:     os.Getenv("BRIDGE_COMPONENT_ID"),
		BridgeSharedSecret:    os.Getenv("BRIDGE_SHARED_SECRET"),
		BridgeLegacyPlaintext: getBool("BRIDGE_LEGACY_PLAINTEXT", true),
	}
}

// Validate reports settings the api cannot start without.
func (c AppConfig) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env: DATABASE_URL"))
	}
	if c.RealmPublicKey == "" && c.JWTSecret == "" {
		errs = append(errs, errors.New("one of KEYCLOAK_REALM_PUBLIC_KEY or JWT_SECRET is required"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost))
	}
	return errors.Join(errs...)
}

// TokenEndpoint is the realm's OpenID Connect token URL.
func (c AppConfig) TokenEndpoint() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.KeycloakBaseURL, c.KeycloakRealm)
}

// Issuer is the expected "iss" claim of realm tokens.
func (c AppConfig) Issuer() string {
	return fmt.Sprintf("%s/realms/%s", c.KeycloakBaseURL, c.KeycloakRealm)
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
