package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"text/template"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gobarber/gobarber/internal/models"
	"github.com/gobarber/gobarber/internal/tasks"
)

const forgotPasswordSubject = "[GoBarber] Password recovery"

var forgotPasswordTemplate = template.Must(template.New("forgot_password").Parse(`Hello, {{.Name}}!

Someone asked to reset the password of your GoBarber account.
Follow the link below to choose a new one:

{{.Link}}

The link expires in {{.TTL}}. If you did not ask for it, ignore this email.

GoBarber team
`))

type forgotPasswordData struct {
	Name string
	Link string
	TTL  string
}

// ResetLink builds the web page URL a recovery mail points to
func ResetLink(webURL, token string) string {
	return webURL + "/reset-password?token=" + url.QueryEscape(token)
}

// HandleForgotPasswordMail renders and sends the recovery mail for one token
func HandleForgotPasswordMail(ctx context.Context, t *asynq.Task, db *gorm.DB, mailer Mailer, webURL string, logger zerolog.Logger) error {
	payload, err := tasks.ParseForgotPasswordPayload(t)
	if err != nil {
		// A malformed payload will never succeed
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := logger.With().Str("user_id", payload.UserID).Logger()

	var userToken models.UserToken
	err = db.WithContext(ctx).Preload("User").
		Where("token = ? AND user_id = ?", payload.Token, payload.UserID).
		First(&userToken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already used or cleaned up
		log.Info().Msg("Recovery token no longer exists, skipping mail")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load recovery token: %w", err)
	}

	var body bytes.Buffer
	if err := forgotPasswordTemplate.Execute(&body, forgotPasswordData{
		Name: userToken.User.Name,
		Link: ResetLink(webURL, userToken.Token),
		TTL:  fmt.Sprintf("%d hours", int(models.UserTokenTTL.Hours())),
	}); err != nil {
		return fmt.Errorf("failed to render mail: %w", err)
	}

	if err := mailer.Send(ctx, Message{
		To:      userToken.User.Email,
		Subject: forgotPasswordSubject,
		Body:    body.String(),
	}); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	log.Info().Msg("Password recovery mail sent")
	return nil
}
