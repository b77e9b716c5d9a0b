package handlers

import (
	"net/http"

	"employee-directory/internal/logging"
	"employee-directory/internal/models"
	"employee-directory/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	service services.AuthService
	log     *logrus.Entry
}

func NewAuthHandler(service services.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: logger.WithField("component", "auth-handler")}
}

// Login godoc
// @Summary Exchange email and password for an access token
// @Description Always answers 200; success tells whether the identity provider accepted the credentials.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.APIResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	log := logging.FromContext(c.Request.Context(), h.log).WithField("operation", "login")

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err)
		return
	}

	log.WithField("email", req.Email).Info("Login attempt")
	c.JSON(http.StatusOK, h.service.Login(c.Request.Context(), req.Email, req.Password))
}
