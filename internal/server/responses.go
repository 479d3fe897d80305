package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/gobarber/gobarber/internal/models"
)

// UserResponse is the public shape of a user
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (s *Server) userResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL(s.config.Server.APIURL),
	}
}

// bind decodes the request with gin's binding (JSON body or query string)
// and answers 400 on failure. Validation failures name the JSON fields.
func bind(c *gin.Context, req any, bindFn func(any) error) bool {
	err := bindFn(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed: " + strings.Join(msgs, "; ")})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return fe.Field() + " does not match"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
