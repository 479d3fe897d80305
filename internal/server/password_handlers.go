package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/auth"
	"github.com/gobarber/gobarber/internal/models"
	"github.com/gobarber/gobarber/internal/tasks"
)

// RetrievePasswordRequest represents a password recovery request
type RetrievePasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents a password reset with a recovery token
type ResetPasswordRequest struct {
	Password             string `json:"password" binding:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Token                string `json:"token" binding:"required"`
}

var errTokenNotFound = errors.New("user token does not exist")
var errTokenExpired = errors.New("token expired")

// retrievePassword answers 204 whether or not the email has an account, so
// the endpoint cannot be used to probe for users
func (s *Server) retrievePassword(c *gin.Context) {
	var req RetrievePasswordRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	var user models.User
	err := s.db.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info().Str("email", req.Email).Msg("Password recovery for unknown email")
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	userToken := &models.UserToken{
		Token:  uuid.NewString(),
		UserID: user.ID,
	}
	if err := s.db.Create(userToken).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create user token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	task, err := tasks.NewForgotPasswordMailTask(user.ID, userToken.Token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create mail task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	info, err := s.tasks.Enqueue(task, asynq.Timeout(time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to enqueue mail task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("task_id", info.ID).
		Msg("Password recovery mail enqueued")

	c.Status(http.StatusNoContent)
}

func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var userID string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var userToken models.UserToken
		if err := tx.Where("token = ?", req.Token).First(&userToken).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errTokenNotFound
			}
			return err
		}

		if userToken.Expired(s.clock()) {
			return errTokenExpired
		}

		result := tx.Model(&models.User{}).Where("id = ?", userToken.UserID).Update("password_hash", hash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errTokenNotFound
		}

		// Tokens are single use
		userID = userToken.UserID
		return tx.Delete(&userToken).Error
	})

	switch {
	case errors.Is(err, errTokenNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User token does not exist"})
		return
	case errors.Is(err, errTokenExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token expired"})
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", userID).Msg("Password reset")

	c.Status(http.StatusNoContent)
}
