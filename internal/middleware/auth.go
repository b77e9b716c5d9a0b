package middleware

import (
	"net/http"

	"employee-directory/internal/auth"
	"employee-directory/internal/logging"
	"employee-directory/internal/metrics"
	"employee-directory/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ContextClaims = "claims"
	ContextActor  = "actor"
)

type AuthMiddleware struct {
	verifier auth.Verifier
	policy   *auth.Policy
	metrics  *metrics.Metrics
	log      *logrus.Entry
}

func NewAuthMiddleware(verifier auth.Verifier, policy *auth.Policy, m *metrics.Metrics, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		policy:   policy,
		metrics:  m,
		log:      logger.WithField("component", "auth-middleware"),
	}
}

// Authenticate verifies the bearer token when one is sent and applies the
// route policy. Public routes pass without a token.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var claims *auth.Claims
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			claims, err = am.verifier.Verify(raw)
		}

		decision := am.policy.Decide(c.Request.Method, route, claims)
		if am.metrics != nil {
			am.metrics.AccessDecisions.WithLabelValues(route, decision.String()).Inc()
		}

		log := logging.FromContext(c.Request.Context(), am.log).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  route,
		})

		switch decision {
		case auth.DenyUnauthenticated:
			if err == nil {
				err = auth.ErrMissingToken
			}
			log.WithError(err).Warn("Rejected unauthenticated request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Error(http.StatusUnauthorized, "Unauthorized: "+err.Error()))
			return
		case auth.DenyUnauthorized:
			log.WithField("actor", claims.Actor()).Warn("Rejected request without required role")
			c.AbortWithStatusJSON(http.StatusForbidden, models.Error(http.StatusForbidden, "Access denied: insufficient role"))
			return
		}

		actor := claims.Actor()
		c.Set(ContextClaims, claims)
		c.Set(ContextActor, actor)
		c.Request = c.Request.WithContext(logging.Extend(c.Request.Context(), logrus.Fields{"actor": actor}))

		c.Next()
	}
}

// ClaimsFrom returns the verified claims, or nil on public routes.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func ActorFrom(c *gin.Context) string {
	if actor := c.GetString(ContextActor); actor != "" {
		return actor
	}
	return "system"
}
