package jwtmw

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"account_backend/internal/feature/account/domain"
	"account_backend/internal/feature/account/domain/entity"
)

// ContextIdentity is the gin context key holding the verified entity.Identity.
const ContextIdentity = "identity"

// Verifier decodes a bearer token into an identity.
type Verifier interface {
	Verify(token string) entity.Identity
}

// AuthRequired returns a gin middleware that admits only requests carrying a valid bearer token.
// Rejected requests get the same Unauthorized response whatever the cause.
func AuthRequired(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := ExtractBearer(c.GetHeader("Authorization"))
		id := v.Verify(token)
		if !id.IsValid() {
			slog.Warn("rejected unauthenticated request", "path", c.FullPath(), "remote_addr", c.ClientIP())
			err := domain.ErrUnauthorized
			c.AbortWithStatusJSON(err.Kind.HTTPStatus(), gin.H{"error": err.Message, "code": err.Kind})
			return
		}

		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired, or entity.InvalidIdentity.
func IdentityFrom(c *gin.Context) entity.Identity {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return entity.InvalidIdentity
	}
	id, ok := v.(entity.Identity)
	if !ok {
		return entity.InvalidIdentity
	}
	return id
}
