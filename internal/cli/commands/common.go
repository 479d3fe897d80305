package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gobarber/gobarber/internal/cli/client"
	"github.com/gobarber/gobarber/internal/cli/config"
	"github.com/gobarber/gobarber/internal/cli/forms"
	"github.com/gobarber/gobarber/internal/cli/prompt"
	"github.com/gobarber/gobarber/internal/cli/storage"
	"github.com/gobarber/gobarber/internal/session"
)

var errNotSignedIn = errors.New("not signed in. Run 'gobarber sign-in' first")

// deps are the collaborators a command runs against. Anything left unset is
// built from the user config.
type deps struct {
	cfg    *config.Config
	api    *client.Client
	store  session.Store
	out    io.Writer
	logger zerolog.Logger
}

// Option overrides a collaborator, mainly for tests
type Option func(*deps)

// WithConfig uses cfg instead of loading ~/.config/gobarber/config.yaml
func WithConfig(cfg *config.Config) Option {
	return func(d *deps) { d.cfg = cfg }
}

// WithAPIClient uses c instead of a client for cfg.APIURL
func WithAPIClient(c *client.Client) Option {
	return func(d *deps) { d.api = c }
}

// WithStore uses store instead of the configured storage backend
func WithStore(store session.Store) Option {
	return func(d *deps) { d.store = store }
}

// WithOutput sends command output to w instead of stdout
func WithOutput(w io.Writer) Option {
	return func(d *deps) { d.out = w }
}

// WithLogger sets the logger handed to the session manager
func WithLogger(l zerolog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// runtime is what a command body works with
type runtime struct {
	cfg      *config.Config
	api      *client.Client
	sessions *session.Manager
	out      io.Writer
	logger   zerolog.Logger
	close    func() error
}

func newDeps(opts []Option) *deps {
	d := &deps{
		out:    os.Stdout,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// open resolves every collaborator and restores the session
func open(ctx context.Context, opts ...Option) (*runtime, error) {
	d := newDeps(opts)

	if d.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w\nRun 'gobarber init <api-url>' to create a configuration file", err)
		}
		d.cfg = cfg
	}

	if d.api == nil {
		d.api = client.New(d.cfg.APIURL)
	}

	closeStore := func() error { return nil }
	if d.store == nil {
		store, closeFn, err := storage.Open(ctx, storage.Options{
			Backend:   d.cfg.Storage,
			FilePath:  d.cfg.SessionFile,
			RedisAddr: d.cfg.RedisAddr,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open session storage: %w", err)
		}
		d.store = store
		closeStore = closeFn
	}

	sessions, err := session.New(ctx, d.store, d.api,
		session.WithNamespace(d.cfg.Namespace),
		session.WithLogger(d.logger),
	)
	if err != nil {
		if !errors.Is(err, session.ErrCorruptedSession) {
			closeStore()
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		fmt.Fprintln(d.out, "⚠ Saved session was unreadable and has been cleared. Please sign in again.")
	}

	sessions.Subscribe(func(st session.State) {
		d.logger.Debug().Str("status", st.Status.String()).Str("user_id", st.User.ID).Msg("Session changed")
	})

	return &runtime{
		cfg:      d.cfg,
		api:      d.api,
		sessions: sessions,
		out:      d.out,
		logger:   d.logger,
		close:    closeStore,
	}, nil
}

// requireSession guards commands that need a signed-in user
func (rt *runtime) requireSession() (session.User, error) {
	user, ok := rt.sessions.CurrentUser()
	if !ok {
		return session.User{}, errNotSignedIn
	}
	return user, nil
}

// checkForm validates form and prints one line per failing field
func checkForm(out io.Writer, form any) error {
	err := forms.Validate(form)
	if err == nil {
		return nil
	}

	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for field := range fieldErrs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(out, "  ✗ %s %s\n", field, fieldErrs[field])
		}
	}
	return err
}

// apiFailure turns an API error into the generic message shown to users,
// keeping the cause for --verbose output. An expired token signs the user
// out so the next command starts clean.
func (rt *runtime) apiFailure(ctx context.Context, action string, err error) error {
	if client.IsStatus(err, http.StatusUnauthorized) && rt.sessions.State().Authenticated() {
		if signOutErr := rt.sessions.SignOut(ctx); signOutErr != nil {
			rt.logger.Warn().Err(signOutErr).Msg("Failed to clear expired session")
		}
		return fmt.Errorf("%s failed: session expired, run 'gobarber sign-in' again: %w", action, err)
	}
	return fmt.Errorf("%s failed, please try again: %w", action, err)
}

func (rt *runtime) printUser(user session.User) {
	fmt.Fprintf(rt.out, "  Name:   %s\n", user.Name)
	fmt.Fprintf(rt.out, "  Email:  %s\n", user.Email)
	if user.AvatarURL != "" {
		fmt.Fprintf(rt.out, "  Avatar: %s\n", user.AvatarURL)
	}
}

// envOr returns value, or the environment variable key when value is empty
func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// ask prompts for a missing value. hint tells non-interactive callers which
// flag supplies it.
func ask(value, label, hint string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}

	var err error
	if secret {
		value, err = prompt.Password(label)
	} else {
		value, err = prompt.Text(label, "", nil)
	}
	if errors.Is(err, prompt.ErrNonInteractive) {
		return "", fmt.Errorf("%s is required in non-interactive mode (use %s)", strings.ToLower(label), hint)
	}
	return value, err
}
