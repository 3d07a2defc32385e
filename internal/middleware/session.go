package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abiturprep/abitur-backend/internal/response"
	"github.com/abiturprep/abitur-backend/internal/service"
)

// CheckSession validates the JWT's JTI against the active session in Redis.
// Tokens from logins that were since replaced or logged out are rejected.
func CheckSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
