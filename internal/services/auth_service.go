package services

import (
	"context"
	"net/http"

	"employee-directory/internal/logging"
	"employee-directory/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// AuthService relays user credentials to the identity provider.
type AuthService interface {
	Login(ctx context.Context, email, password string) models.LoginResponse
}

type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// HTTPClient is used for the token request when set.
	HTTPClient *http.Client
}

type authService struct {
	oauth  *oauth2.Config
	client *http.Client
	log    *logrus.Entry
}

func NewAuthService(cfg AuthConfig, logger *logrus.Logger) AuthService {
	return &authService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: cfg.HTTPClient,
		log:    logger.WithField("component", "auth-service"),
	}
}

// Login performs a resource owner password grant. Failures are reported in
// the response, never as an error.
func (s *authService) Login(ctx context.Context, email, password string) models.LoginResponse {
	log := logging.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"operation": "login",
		"email":     email,
	})

	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}

	token, err := s.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		log.WithError(err).Warn("Login rejected by identity provider")
		return models.LoginResponse{
			Success: false,
			Message: "Login failed: " + err.Error(),
		}
	}

	log.Info("Login successful")
	return models.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   "Bearer " + token.AccessToken,
	}
}
