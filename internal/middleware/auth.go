package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/swasthgram/health-api/internal/model"
	userservice "github.com/swasthgram/health-api/internal/service/user"
	"github.com/swasthgram/health-api/pkg/auth"
	"github.com/swasthgram/health-api/pkg/httputil"
)

const ContextUser = "current_user"

type AuthMiddleware struct {
	jwtSvc  auth.JWTService
	userSvc *userservice.Service
}

func NewAuthMiddleware(jwtSvc auth.JWTService, userSvc *userservice.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, userSvc: userSvc}
}

// Authenticate verifies the JWT token and loads the caller into the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.jwtSvc.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		u, err := m.userSvc.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			abortUnauthorized(c, "unknown user")
			return
		}

		c.Set(ContextUser, u)
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, role := range roles {
			if u.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
			Status:  "error",
			Message: "insufficient role",
		})
	}
}

// CurrentUser returns the authenticated caller, or nil outside authenticated
// routes.
func CurrentUser(c *gin.Context) *model.User {
	v, exists := c.Get(ContextUser)
	if !exists {
		return nil
	}
	u, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return u
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Status:  "error",
		Message: message,
	})
}
