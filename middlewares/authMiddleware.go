package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/models"
	"parkwatch-be/repository"
	authUtils "parkwatch-be/utils"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"

	// AuthCookie holds the token for browser clients
	AuthCookie = "auth_token"
)

func tokenFromRequest(c *gin.Context) string {
	if authHeader := strings.TrimSpace(c.GetHeader("Authorization")); authHeader != "" {
		// Extracting token from "Bearer <token>" format; mobile clients send it bare
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			return strings.TrimSpace(authHeader[7:])
		}
		return authHeader
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

// UserFinder loads the account a token was issued for
type UserFinder interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuthMiddleware verifies the token and loads the caller's current role from
// users, so a role change applies to tokens issued before it.
func AuthMiddleware(jwt *authUtils.JWTManager, users UserFinder, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			l.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}

		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}
		u, err := users.GetUser(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}
		if err != nil {
			l.Error("failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		if u.Role != claims.Role {
			l.Debug("role changed since token was issued",
				zap.String("user_id", claims.UserID),
				zap.String("token_role", string(claims.Role)),
				zap.String("role", string(u.Role)))
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, u.Role)
		c.Next()
	}
}
