package bridge

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"employee-directory/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	HeaderBridgeToken  = "X-Bridge-Token"
	credentialPassword = "password"
)

type Handler struct {
	provider Provider
	secret   string
	log      *logrus.Entry
}

func NewHandler(provider Provider, sharedSecret string, logger *logrus.Logger) *Handler {
	return &Handler{
		provider: provider,
		secret:   sharedSecret,
		log:      logger.WithField("component", "bridge-handler"),
	}
}

type credentialInput struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value"`
}

// RegisterRoutes mounts the user endpoints on r behind the shared secret check.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	users := r.Group("/users", h.RequireSharedSecret())
	{
		users.GET("/:identifier", h.GetUser)
		users.POST("/:identifier/credentials/validate", h.ValidateCredential)
		users.PUT("/:identifier", h.UpdateUser)
	}
}

// RequireSharedSecret rejects calls without a matching X-Bridge-Token when
// a secret is configured.
func (h *Handler) RequireSharedSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" {
			c.Next()
			return
		}
		token := c.GetHeader(HeaderBridgeToken)
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			h.log.WithField("path", c.Request.URL.Path).Warn("Rejected bridge call with bad token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bridge token"})
			return
		}
		c.Next()
	}
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.provider.LookupByIdentifier(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		h.fail(c, "lookup", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ValidateCredential(c *gin.Context) {
	var in credentialInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if !strings.EqualFold(in.Type, credentialPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported credential type: " + in.Type})
		return
	}

	valid, err := h.provider.ValidateCredential(c.Request.Context(), c.Param("identifier"), in.Value)
	if err != nil {
		h.fail(c, "validate-credential", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()

	existing, err := h.provider.LookupByIdentifier(ctx, c.Param("identifier"))
	if err != nil {
		h.fail(c, "update", err)
		return
	}

	var in User
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	in.EmployeeID = existing.EmployeeID
	if in.Email == "" {
		in.Email = existing.Email
	}

	if err := h.provider.Update(ctx, &in); err != nil {
		h.fail(c, "update", err)
		return
	}

	updated, err := h.provider.LookupByIdentifier(ctx, in.Email)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) fail(c *gin.Context, operation string, err error) {
	log := logging.FromContext(c.Request.Context(), h.log).WithFields(logrus.Fields{
		"operation":  operation,
		"identifier": c.Param("identifier"),
	})
	switch {
	case errors.Is(err, ErrUserNotFound):
		log.Debug("User not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		log.Warn(err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Bridge call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
