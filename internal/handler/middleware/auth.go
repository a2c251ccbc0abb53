package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/handler/httperr"
	"restaurant-ordering/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const ctxStaffKey = "staff"

var (
	errMissingToken = httperr.NewError("access token required")
	errInvalidToken = httperr.NewError("invalid or expired token")
	errForbidden    = httperr.NewError("insufficient permissions")
)

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "Access token required", nil)
			return
		}

		principal, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, errInvalidToken, "Invalid or expired token", nil)
			return
		}

		c.Set(ctxStaffKey, principal)
		c.Set("jwt_claims", map[string]any{
			"staff_id":  principal.ID,
			"tenant_id": principal.TenantID,
			"role":      principal.Role.String(),
		})
		c.Next()
	}
}

// RequireRoleAtLeast must run after RequireAuth.
func (m *AuthMiddleware) RequireRoleAtLeast(minRole staff.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetStaff(c)
		if !ok {
			httperr.AbortWithError(c, http.StatusInternalServerError, errMissingToken, "Internal server error", nil)
			return
		}

		if !principal.Role.AtLeast(minRole) {
			httperr.AbortWithError(c, http.StatusForbidden, errForbidden, "Insufficient permissions", nil)
			return
		}

		c.Next()
	}
}

func GetStaff(c *gin.Context) (staff.Principal, bool) {
	v, exists := c.Get(ctxStaffKey)
	if !exists {
		return staff.Principal{}, false
	}
	p, ok := v.(staff.Principal)
	return p, ok
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}
