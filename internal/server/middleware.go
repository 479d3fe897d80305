package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/auth"
	"github.com/gobarber/gobarber/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

const (
	sessionContextKey = "session"
	userContextKey    = "user"
)

func setSession(c *gin.Context, sessionData *auth.SessionData, user *models.User) {
	c.Set(sessionContextKey, sessionData)
	c.Set(userContextKey, user)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates the bearer token and loads the session user
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "JWT token is missing"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid JWT token")
			return
		}

		// Tokens outlive deleted accounts
		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setSession(c, &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
		}, &user)

		c.Next()
	}
}

// currentUser returns the user JWTAuthMiddleware loaded. It writes a 401
// and returns false outside the authenticated group.
func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	user, ok := value.(*models.User)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return user, true
}
