package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/auth"
	"github.com/gobarber/gobarber/internal/models"
)

// SessionRequest represents a sign-in request
type SessionRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse represents a sign-in response
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

const invalidCredentials = "Incorrect email/password combination"

func (s *Server) createSession(c *gin.Context) {
	var req SessionRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentials})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentials})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed in")

	c.JSON(http.StatusOK, SessionResponse{
		Token: token,
		User:  s.userResponse(&user),
	})
}
