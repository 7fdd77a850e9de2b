package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"ideahub/internal/db"
	"ideahub/internal/models"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CheckUserKey = "user"

// jwtSecret reads the signing key per call rather than at package init, so a
// secret loaded from .env by godotenv in main is picked up.
func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken signs a JWT for the user. Expiry comes from JWT_TTL_HOURS,
// defaulting to 72.
func GenerateToken(userID uint) (string, error) {
	ttl := 72
	if n := utils.StringToInt(os.Getenv("JWT_TTL_HOURS")); n > 0 {
		ttl = n
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": float64(userID),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Duration(ttl) * time.Hour).Unix(),
	})
	return token.SignedString(jwtSecret())
}

// LoadUser resolves the Authorization bearer token, if any, and puts the
// authenticated user on the context. Missing or invalid tokens are not an
// error here; AuthRequired decides whether the route needs one.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return jwtSecret(), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Next()
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			c.Next()
			return
		}

		var user models.User
		if err := db.DB.First(&user, uint(sub)).Error; err == nil && user.IsActive {
			c.Set(CheckUserKey, &user)
		}
		c.Next()
	}
}

// AuthRequired rejects requests that did not authenticate.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"kind": "unauthorized", "message": "authentication required"},
			})
			return
		}
		c.Next()
	}
}

// AdminRequired rejects non-admin users. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			// Authenticated but lacking rights, so 403 rather than 401.
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"kind": "unauthorized", "message": "admin access required"},
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
