package workers

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gobarber/gobarber/internal/models"
	"github.com/gobarber/gobarber/internal/tasks"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func seedToken(t *testing.T, db *gorm.DB, createdAt time.Time) (*models.User, *models.UserToken) {
	t.Helper()
	user := &models.User{Name: "John Doe", Email: "john-" + createdAt.Format("150405") + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	token := &models.UserToken{
		BaseModel: models.BaseModel{CreatedAt: createdAt},
		Token:     "token-" + createdAt.Format("150405"),
		UserID:    user.ID,
	}
	require.NoError(t, db.Create(token).Error)
	return user, token
}

func TestHandleForgotPasswordMail(t *testing.T) {
	db := openTestDB(t)
	user, token := seedToken(t, db, time.Now())
	mailer := &fakeMailer{}

	task, err := tasks.NewForgotPasswordMailTask(user.ID, token.Token)
	require.NoError(t, err)

	require.NoError(t, HandleForgotPasswordMail(context.Background(), task, db, mailer, "http://web.test", zerolog.Nop()))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, user.Email, msg.To)
	assert.Equal(t, forgotPasswordSubject, msg.Subject)
	assert.Contains(t, msg.Body, "Hello, John Doe!")
	assert.Contains(t, msg.Body, "http://web.test/reset-password?token="+token.Token)
	assert.Contains(t, msg.Body, "2 hours")
}

func TestHandleForgotPasswordMail_TokenGone(t *testing.T) {
	db := openTestDB(t)
	mailer := &fakeMailer{}

	task, err := tasks.NewForgotPasswordMailTask("01HUSER", "missing")
	require.NoError(t, err)

	assert.NoError(t, HandleForgotPasswordMail(context.Background(), task, db, mailer, "http://web.test", zerolog.Nop()))
	assert.Empty(t, mailer.sent)
}

func TestHandleForgotPasswordMail_Errors(t *testing.T) {
	db := openTestDB(t)

	err := HandleForgotPasswordMail(context.Background(), asynq.NewTask(tasks.TypeForgotPasswordMail, []byte("{")), db, &fakeMailer{}, "http://web.test", zerolog.Nop())
	assert.ErrorIs(t, err, asynq.SkipRetry)

	user, token := seedToken(t, db, time.Now())
	task, err := tasks.NewForgotPasswordMailTask(user.ID, token.Token)
	require.NoError(t, err)

	err = HandleForgotPasswordMail(context.Background(), task, db, &fakeMailer{err: errors.New("smtp down")}, "http://web.test", zerolog.Nop())
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "delivery failures are retried")
}

func TestResetLink_EscapesToken(t *testing.T) {
	assert.Equal(t, "http://web.test/reset-password?token=a%2Bb", ResetLink("http://web.test", "a+b"))
}

func TestHandleTokenCleanup_DeletesOnlyExpired(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	_, fresh := seedToken(t, db, now.Add(-time.Hour))
	seedToken(t, db, now.Add(-3*time.Hour))
	seedToken(t, db, now.Add(-48*time.Hour))

	deleted, err := HandleTokenCleanup(context.Background(), db, now, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var left []models.UserToken
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, fresh.Token, left[0].Token)
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	types []string
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.types = append(f.types, task.Type())
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "1"}, nil
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&fakeEnqueuer{}, "every now and then", zerolog.Nop())
	assert.ErrorContains(t, err, "invalid token cleanup schedule")
}

func TestNewScheduler_Entries(t *testing.T) {
	c, err := NewScheduler(&fakeEnqueuer{}, "@every 1h", zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)

	// Entries report the next run only once started
	c.Start()
	defer c.Stop()
	assert.Eventually(t, func() bool {
		return !c.Entries()[0].Next.IsZero()
	}, time.Second, 10*time.Millisecond)
}

func TestEnqueueTokenCleanup(t *testing.T) {
	client := &fakeEnqueuer{}
	enqueueTokenCleanup(client, zerolog.Nop())

	require.Equal(t, []string{tasks.TypeTokenCleanup}, client.types)
	assert.Len(t, client.opts[0], 2)

	// Duplicates and outages are logged, not fatal
	enqueueTokenCleanup(&fakeEnqueuer{err: asynq.ErrDuplicateTask}, zerolog.Nop())
	enqueueTokenCleanup(&fakeEnqueuer{err: errors.New("redis down")}, zerolog.Nop())
}
