package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeForgotPasswordMail = "mail:forgot_password"
	TypeTokenCleanup       = "tokens:cleanup"
)

// ForgotPasswordPayload identifies the recovery token to mail out
type ForgotPasswordPayload struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// NewForgotPasswordMailTask creates a task that sends a password recovery mail
func NewForgotPasswordMailTask(userID, token string) (*asynq.Task, error) {
	payload, err := json.Marshal(ForgotPasswordPayload{
		UserID: userID,
		Token:  token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeForgotPasswordMail, payload, asynq.MaxRetry(5)), nil
}

// ParseForgotPasswordPayload parses the payload of a recovery mail task
func ParseForgotPasswordPayload(task *asynq.Task) (ForgotPasswordPayload, error) {
	var payload ForgotPasswordPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.UserID == "" || payload.Token == "" {
		return payload, fmt.Errorf("payload is missing user_id or token")
	}
	return payload, nil
}

// NewTokenCleanupTask creates a task that deletes expired recovery tokens
func NewTokenCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeTokenCleanup, nil, asynq.MaxRetry(1))
}
