package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/models"
)

// HandleTokenCleanup deletes recovery tokens older than models.UserTokenTTL
func HandleTokenCleanup(ctx context.Context, db *gorm.DB, now time.Time, logger zerolog.Logger) (int64, error) {
	cutoff := now.Add(-models.UserTokenTTL)

	result := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.UserToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}

	logger.Info().
		Int64("deleted", result.RowsAffected).
		Time("cutoff", cutoff).
		Msg("Expired recovery tokens cleaned up")

	return result.RowsAffected, nil
}
