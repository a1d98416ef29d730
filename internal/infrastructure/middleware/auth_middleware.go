package middleware

import (
	"net/http"
	"strings"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/core/services"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// RequirePrincipal verifies the bearer token and stores the resolved
// principal in the request context. Requests without a valid token are
// rejected with 401 before reaching the handler.
func RequirePrincipal(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": verificationMessage(err)})
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalPrincipal resolves a principal when a valid token is present but
// lets anonymous requests through.
func OptionalPrincipal(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if principal := verifier.VerifyOptional(c.Request.Context(), token); principal != nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequirePrincipal, or nil.
func PrincipalFrom(c *gin.Context) *domain.Principal {
	val, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, ok := val.(*domain.Principal)
	if !ok {
		return nil
	}
	return principal
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// verificationMessage keeps token failure responses distinguishable without
// leaking anything about accounts that do not exist.
func verificationMessage(err error) string {
	switch err {
	case services.ErrExpiredToken:
		return "token expired"
	case services.ErrAccountDeactivated:
		return "account deactivated"
	default:
		return "invalid token"
	}
}
