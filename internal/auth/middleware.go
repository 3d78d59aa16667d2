package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
)

const (
	principalKey = "auth.principal"
	claimsKey    = "auth.claims"
)

// PrincipalResolver reloads the principal named by a verified token, so a
// changed role or a deleted account takes effect before the token expires.
// It returns a NotFound AppError when the user no longer exists.
type PrincipalResolver func(ctx context.Context, p authz.Principal) (authz.Principal, error)

// Middleware requires a valid bearer token and stores the principal on the
// gin context. Requests without one are aborted with 401. When resolve is
// set, the stored principal is the one it returns rather than the token's
// claims.
func Middleware(tokens *TokenService, resolve PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, p, err := tokens.Verify(BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			abort(c, err)
			return
		}
		if resolve != nil {
			p, err = resolve(c.Request.Context(), p)
			if err != nil {
				if apperrors.Is(err, apperrors.CodeNotFound) {
					err = apperrors.Unauthenticated("User not found")
				}
				abort(c, err)
				return
			}
		}
		c.Set(principalKey, p)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Authorize aborts with 403 unless the principal's role may perform act on
// res at all, judged as if the principal owned the record. Handlers still
// decide ownership once the record is loaded. It must run after Middleware.
func Authorize(res authz.Resource, act authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			abort(c, apperrors.Unauthenticated(""))
			return
		}
		if err := authz.DecideRole(p, res, act); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the principal set by Middleware.
func CurrentPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}

// CurrentClaims returns the verified token claims set by Middleware.
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abort(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
