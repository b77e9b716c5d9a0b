package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type VerifierConfig struct {
	// PublicKey is the realm RSA key, PEM or the bare base64 body.
	PublicKey string
	// HMACSecret enables HS256 tokens, used for local development.
	HMACSecret string
	// Issuer is checked when non-empty.
	Issuer string
}

type Verifier interface {
	Verify(raw string) (*Claims, error)
}

type verifier struct {
	parser *jwt.Parser
	keys   jwt.Keyfunc
}

func NewVerifier(cfg VerifierConfig) (Verifier, error) {
	var methods []string
	var rsaKey any
	if cfg.PublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(toPEM(cfg.PublicKey)))
		if err != nil {
			return nil, fmt.Errorf("parse realm public key: %w", err)
		}
		rsaKey = key
		methods = append(methods, "RS256", "RS384", "RS512")
	}
	if cfg.HMACSecret != "" {
		methods = append(methods, "HS256")
	}
	if len(methods) == 0 {
		return nil, errors.New("no token verification key configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	secret := []byte(cfg.HMACSecret)
	return &verifier{
		parser: jwt.NewParser(opts...),
		keys: func(token *jwt.Token) (interface{}, error) {
			switch token.Method.(type) {
			case *jwt.SigningMethodRSA:
				if rsaKey != nil {
					return rsaKey, nil
				}
			case *jwt.SigningMethodHMAC:
				if len(secret) > 0 {
					return secret, nil
				}
			}
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		},
	}, nil
}

func (v *verifier) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, v.keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", ErrMissingToken)
	}
	return strings.TrimSpace(token), nil
}

func toPEM(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, "-----BEGIN") {
		return key
	}
	return "-----BEGIN PUBLIC KEY-----\n" + key + "\n-----END PUBLIC KEY-----\n"
}
