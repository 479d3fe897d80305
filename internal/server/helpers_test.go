package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gobarber/gobarber/internal/config"
)

// fakeEnqueuer records enqueued tasks instead of talking to Redis
type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type(), Type: task.Type()}, nil
}

type testServer struct {
	t     *testing.T
	srv   *Server
	db    *gorm.DB
	tasks *fakeEnqueuer
	now   time.Time
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "3333",
			APIURL:      "http://api.test",
			WebURL:      "http://web.test",
			CORSOrigins: []string{"http://web.test"},
		},
		Storage: config.StorageConfig{Dir: filepath.Join(t.TempDir(), "uploads")},
		Jobs:    config.JobsConfig{TokenCleanupSchedule: "@every 1h"},
	}
}

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		t:     t,
		db:    openTestDB(t, filepath.Join(t.TempDir(), "test.sqlite")),
		tasks: &fakeEnqueuer{},
		now:   time.Date(2026, time.March, 9, 9, 30, 0, 0, time.Local),
	}

	srv, err := New(testConfig(t), zerolog.Nop(), "test",
		WithDB(ts.db),
		WithEnqueuer(ts.tasks),
		WithClock(func() time.Time { return ts.now }),
	)
	require.NoError(t, err)
	ts.srv = srv
	return ts
}

// do sends a JSON request. token may be empty.
func (ts *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	ts.t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

// signUp creates an account and returns its ID
func (ts *testServer) signUp(name, email, password string) string {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/users", map[string]string{"name": name, "email": email, "password": password}, "")
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())

	var user UserResponse
	decode(ts.t, w, &user)
	return user.ID
}

// signIn returns a bearer token for email
func (ts *testServer) signIn(email, password string) string {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/sessions", map[string]string{"email": email, "password": password}, "")
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())

	var resp SessionResponse
	decode(ts.t, w, &resp)
	require.NotEmpty(ts.t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func (ts *testServer) doWithOrigin(method, path, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) doWithAuthHeader(method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}
