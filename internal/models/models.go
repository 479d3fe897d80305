package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global server configuration
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first boot (64 hex chars)
}

// User represents an account. Providers are plain users other clients can
// book with.
type User struct {
	BaseModel
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Avatar       string    `json:"-"` // File name under the storage dir, empty = no avatar
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AvatarURL returns the public URL of the avatar, or "" when none is set
func (u *User) AvatarURL(baseURL string) string {
	if u.Avatar == "" {
		return ""
	}
	return baseURL + "/files/" + u.Avatar
}

// UserTokenTTL is how long a password recovery token stays valid
const UserTokenTTL = 2 * time.Hour

// UserToken is a single-use password recovery token
type UserToken struct {
	BaseModel
	Token  string `json:"token" gorm:"type:varchar(36);unique;not null"` // UUID v4
	UserID string `json:"user_id" gorm:"not null;index"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the token is older than UserTokenTTL at now
func (t *UserToken) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) > UserTokenTTL
}

// Appointment is one booked hour with a provider
type Appointment struct {
	BaseModel
	ProviderID string    `json:"provider_id" gorm:"not null;uniqueIndex:idx_provider_date"`
	UserID     string    `json:"user_id" gorm:"not null;index"`
	Date       time.Time `json:"date" gorm:"not null;uniqueIndex:idx_provider_date"` // Truncated to the hour

	// Relationships
	Provider User `json:"-" gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE"`
	User     User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&Config{}, &User{}, &UserToken{}, &Appointment{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
