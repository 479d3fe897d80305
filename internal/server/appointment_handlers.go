package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/models"
)

// Bookable hours, in the server's local time
const (
	firstHour = 8
	lastHour  = 17
)

// CreateAppointmentRequest represents a booking
type CreateAppointmentRequest struct {
	ProviderID string    `json:"provider_id" binding:"required"`
	Date       time.Time `json:"date" binding:"required"`
}

// DayQuery selects one calendar day
type DayQuery struct {
	Day   int `form:"day" binding:"required,min=1,max=31"`
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=1970"`
}

// AppointmentResponse is the public shape of an appointment. User is the
// customer and is only filled on the provider's listing.
type AppointmentResponse struct {
	ID         string        `json:"id"`
	ProviderID string        `json:"provider_id"`
	UserID     string        `json:"user_id"`
	Date       time.Time     `json:"date"`
	User       *UserResponse `json:"user,omitempty"`
}

func (s *Server) listProviders(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var providers []models.User
	if err := s.db.Where("id <> ?", user.ID).Order("name ASC").Find(&providers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list providers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]UserResponse, len(providers))
	for i := range providers {
		resp[i] = s.userResponse(&providers[i])
	}

	c.JSON(http.StatusOK, resp)
}

// listProviderAppointments returns the caller's appointments as a provider
// for one day
func (s *Server) listProviderAppointments(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var q DayQuery
	if !bind(c, &q, c.ShouldBindQuery) {
		return
	}

	start := time.Date(q.Year, time.Month(q.Month), q.Day, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1)

	var appointments []models.Appointment
	err := s.db.Preload("User").
		Where("provider_id = ? AND date >= ? AND date < ?", user.ID, start.UTC(), end.UTC()).
		Order("date ASC").
		Find(&appointments).Error
	if err != nil {
		s.logger.Error().Err(err).Str("provider_id", user.ID).Msg("Failed to list appointments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]AppointmentResponse, len(appointments))
	for i := range appointments {
		a := &appointments[i]
		customer := s.userResponse(&a.User)
		resp[i] = AppointmentResponse{
			ID:         a.ID,
			ProviderID: a.ProviderID,
			UserID:     a.UserID,
			Date:       a.Date,
			User:       &customer,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) createAppointment(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}

	date := req.Date.Truncate(time.Hour)
	local := date.In(time.Local)

	switch {
	case date.Before(s.clock()):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can't create an appointment on a past date"})
		return
	case req.ProviderID == user.ID:
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can't create an appointment with yourself"})
		return
	case local.Hour() < firstHour || local.Hour() > lastHour:
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can only create appointments between 8am and 5pm"})
		return
	}

	var provider models.User
	if err := models.FindByID(s.db, req.ProviderID, &provider); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find provider")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var count int64
	if err := s.db.Model(&models.Appointment{}).
		Where("provider_id = ? AND date = ?", provider.ID, date.UTC()).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check availability")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This appointment is already booked"})
		return
	}

	appointment := &models.Appointment{
		ProviderID: provider.ID,
		UserID:     user.ID,
		Date:       date.UTC(),
	}
	if err := s.insertAppointment(appointment); err != nil {
		if errors.Is(err, errSlotTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This appointment is already booked"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create appointment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create appointment"})
		return
	}

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("provider_id", provider.ID).
		Str("user_id", user.ID).
		Time("date", appointment.Date).
		Msg("Appointment created")

	c.JSON(http.StatusCreated, AppointmentResponse{
		ID:         appointment.ID,
		ProviderID: appointment.ProviderID,
		UserID:     appointment.UserID,
		Date:       appointment.Date,
	})
}

var errSlotTaken = errors.New("appointment slot already booked")

// insertAppointment creates a. A concurrent booking that won the race
// trips idx_provider_date and comes back as errSlotTaken.
func (s *Server) insertAppointment(a *models.Appointment) error {
	err := s.db.Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errSlotTaken
	}
	return err
}
