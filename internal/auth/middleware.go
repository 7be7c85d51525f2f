package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// BearerToken extracts the token from an Authorization header value.
// A present header without the Bearer scheme is invalid, not missing.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// RequireBearer rejects requests without a valid token:
// 403 when the header is absent, 401 when it is present but invalid.
func RequireBearer(v *Verifier, messages func(c *gin.Context, key string) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c.GetHeader("Authorization"))
		var identity Identity
		if err == nil {
			identity, err = v.Verify(token)
		}

		switch {
		case errors.Is(err, ErrMissingToken):
			log.Println("INFO: request without token rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": messages(c, "access_denied")})
			return
		case err != nil:
			log.Printf("INFO: token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": messages(c, "invalid_token")})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity attached by RequireBearer.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
