package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gobarber/gobarber/internal/cli/client"
	"github.com/gobarber/gobarber/internal/cli/config"
	"github.com/gobarber/gobarber/internal/cli/storage"
	"github.com/gobarber/gobarber/internal/session"
)

const (
	tokenKey = "@GoBarber:token"
	userKey  = "@GoBarber:user"
)

var testUser = session.User{ID: "01HUSER", Name: "John Doe", Email: "john@example.com"}

// testEnv is a fake API server plus the collaborators a command needs
type testEnv struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server
	store  *storage.Memory
	out    bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("GOBARBER_EMAIL", "")
	t.Setenv("GOBARBER_PASSWORD", "")

	env := &testEnv{t: t, mux: http.NewServeMux(), store: storage.NewMemory()}
	env.server = httptest.NewServer(env.mux)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) opts() []Option {
	cfg := config.Default()
	cfg.APIURL = e.server.URL
	cfg.Storage = storage.BackendMemory

	return []Option{
		WithConfig(cfg),
		WithAPIClient(client.New(e.server.URL)),
		WithStore(e.store),
		WithOutput(&e.out),
		WithLogger(zerolog.Nop()),
	}
}

// handle registers a JSON responder on pattern, e.g. "GET /profile"
func (e *testEnv) handle(pattern string, status int, body any) {
	e.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

// signedIn seeds the store with a persisted session for testUser
func (e *testEnv) signedIn() {
	e.t.Helper()
	raw, err := json.Marshal(testUser)
	require.NoError(e.t, err)
	ctx := context.Background()
	require.NoError(e.t, e.store.Set(ctx, tokenKey, "valid-token"))
	require.NoError(e.t, e.store.Set(ctx, userKey, string(raw)))
}

func (e *testEnv) stored(key string) (string, bool) {
	value, err := e.store.Get(context.Background(), key)
	return value, err == nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
