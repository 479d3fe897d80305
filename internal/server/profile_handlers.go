package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gobarber/gobarber/internal/auth"
)

// UpdateProfileRequest represents a profile update. The password only
// changes when old_password matches.
type UpdateProfileRequest struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	OldPassword          string `json:"old_password"`
	Password             string `json:"password" binding:"omitempty,min=6"`
	PasswordConfirmation string `json:"password_confirmation" binding:"eqfield=Password"`
}

func (s *Server) getProfile(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.userResponse(user))
}

func (s *Server) updateProfile(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	taken, err := s.emailTaken(req.Email, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "E-mail already in use"})
		return
	}

	user.Name = req.Name
	user.Email = req.Email

	if req.Password != "" {
		if req.OldPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You need to inform the old password to set a new password"})
			return
		}
		if err := auth.VerifyPassword(req.OldPassword, user.PasswordHash); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Old password does not match"})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		user.PasswordHash = hash
	}

	if err := s.db.Save(user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Bool("password_changed", req.Password != "").Msg("Profile updated")

	c.JSON(http.StatusOK, s.userResponse(user))
}
