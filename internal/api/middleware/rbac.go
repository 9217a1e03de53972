package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	apperrors "mediadesk.io/courier/internal/pkg/errors"
)

// CronSecretHeader authenticates external schedulers.
const CronSecretHeader = "X-Cron-Secret"

// RequireRole lets the request through only when the authenticated caller
// holds one of roles. It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c.Request.Context())
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": apperrors.CodeForbidden, "message": "not authenticated",
			})
			return
		}
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": apperrors.CodeForbidden, "message": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// CronOrAdmin accepts a matching X-Cron-Secret header or, failing that, an
// admin bearer token. An empty secret disables the header path.
func CronOrAdmin(secret string, cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got := c.GetHeader(CronSecretHeader); got != "" && secret != "" {
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1 {
				setCaller(c, "cron", "cron")
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": apperrors.CodeUnauthorized, "message": "invalid cron secret",
			})
			return
		}

		claims, err := bearerClaims(c, cfg)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": apperrors.CodeForbidden, "message": "insufficient permissions",
			})
			return
		}
		setCaller(c, claims.UserID, claims.Role)
		c.Next()
	}
}
