package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/auth"
	"github.com/gobarber/gobarber/internal/models"
)

// CreateUserRequest represents a sign-up request
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

var avatarExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	taken, err := s.emailTaken(req.Email, "")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email address already used"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User created")

	c.JSON(http.StatusCreated, s.userResponse(user))
}

// emailTaken reports whether email belongs to a user other than exceptID
func (s *Server) emailTaken(email, exceptID string) (bool, error) {
	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

func (s *Server) updateAvatar(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar must be a png, jpg, gif or webp image"})
		return
	}

	// Random prefix so two users uploading "me.png" never collide
	filename := uuid.NewString() + "-" + filepath.Base(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(s.config.Storage.Dir, filename)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save avatar")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save avatar"})
		return
	}

	previous := user.Avatar
	if err := s.db.Model(user).Update("avatar", filename).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update avatar")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}
	user.Avatar = filename

	if previous != "" {
		if err := os.Remove(filepath.Join(s.config.Storage.Dir, previous)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", previous).Msg("Failed to remove previous avatar")
		}
	}

	s.logger.Info().Str("user_id", user.ID).Str("file", filename).Msg("Avatar updated")

	c.JSON(http.StatusOK, s.userResponse(user))
}
