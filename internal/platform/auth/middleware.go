package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

const principalKey = "farmasync.auth.principal"

// Authenticate decodes an optional bearer token into a Principal stored on the gin context.
// Requests without a token continue anonymously; invalid tokens are rejected with 401.
// A session store failure answers 500 and is logged, since the token was never judged.
func Authenticate(verifier Verifier, logger *slog.Logger) gin.HandlerFunc {
	responder := apierrors.DefaultResponder.WithLogger(logger)
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			apierrors.DefaultResponder.Unauthorized(c, "authorization header must use the Bearer scheme")
			return
		}
		principal, err := verifier.Verify(c.Request.Context(), raw)
		if errors.Is(err, ErrTokenStoreUnavailable) {
			responder.RespondError(c, err)
			return
		}
		if err != nil {
			detail := ErrInvalidToken.Error()
			if errors.Is(err, ErrRevokedToken) {
				detail = ErrRevokedToken.Error()
			}
			apierrors.DefaultResponder.Unauthorized(c, detail)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			apierrors.DefaultResponder.Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous requests with 401 and principals outside roles with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			apierrors.DefaultResponder.Unauthorized(c, "authentication required")
			return
		}
		if !principal.HasRole(roles...) {
			apierrors.DefaultResponder.Forbidden(c, "insufficient role for this operation")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok && principal != nil
}
