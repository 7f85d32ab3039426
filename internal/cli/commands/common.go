package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kassolend/console/internal/auth"
	"github.com/kassolend/console/internal/cli/loginselect"
	"github.com/kassolend/console/internal/cli/userconfig"
	"github.com/kassolend/console/internal/cli/ux"
	"github.com/kassolend/console/internal/config"
	"github.com/kassolend/console/internal/credentials"
	"github.com/kassolend/console/internal/logger"
	"github.com/kassolend/console/internal/models"
	"github.com/kassolend/console/internal/session"
	"github.com/kassolend/console/internal/transport"
)

// SessionExpiredNotice is printed when the backend or the token's expiry ends the session
const SessionExpiredNotice = "Session expired. Run 'kassolend login' to sign in again."

var (
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("not logged in. Run 'kassolend login' first")
)

// Option overrides a dependency of the commands, mainly for tests
type Option func(*options)

type options struct {
	cfg          *config.Config
	store        credentials.Store
	logger       *zerolog.Logger
	interactive  *bool
	prompt       loginselect.Prompter
	readPassword func() (string, error)
	readLine     func(label string) (string, error)
}

// WithConfig uses cfg instead of loading kassolend.yaml and the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithStore uses store instead of the OS keychain
func WithStore(store credentials.Store) Option {
	return func(o *options) { o.store = store }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithInteractive overrides terminal detection
func WithInteractive(interactive bool) Option {
	return func(o *options) { o.interactive = &interactive }
}

// WithUserTypePrompt replaces the interactive user type picker
func WithUserTypePrompt(p loginselect.Prompter) Option {
	return func(o *options) { o.prompt = p }
}

// WithPasswordReader replaces the hidden terminal password prompt
func WithPasswordReader(read func() (string, error)) Option {
	return func(o *options) { o.readPassword = read }
}

// WithLineReader replaces the interactive text prompt
func WithLineReader(read func(label string) (string, error)) Option {
	return func(o *options) { o.readLine = read }
}

// env is everything a command runs against: configuration, the session-aware
// client and the session state built on it
type env struct {
	cfg         *config.Config
	store       credentials.Store
	logger      zerolog.Logger
	out         io.Writer
	errOut      io.Writer
	interactive bool
	prompt      loginselect.Prompter
	readPass    func() (string, error)
	readLine    func(label string) (string, error)

	client *transport.Client
	auth   *auth.Service
	state  *session.State

	expired    chan struct{}
	expireOnce sync.Once
}

// setup builds the env for cmd. The --api-url flag, when present, overrides
// every other source of the API address.
func setup(cmd *cobra.Command, opts []Option) (*env, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		// Without a project file or env override, reuse the API of the last login
		if cfg.File == "" && os.Getenv("KASSOLEND_API_URL") == "" {
			if uc, err := userconfig.Load(); err == nil && uc.LastAPIURL != "" {
				cfg.API.BaseURL = uc.LastAPIURL
			}
		}
	}
	if apiURL, err := cmd.Flags().GetString("api-url"); err == nil && apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	e := &env{
		cfg:      cfg,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		prompt:   o.prompt,
		readPass: o.readPassword,
		readLine: o.readLine,
		expired:  make(chan struct{}),
	}

	if o.logger != nil {
		e.logger = *o.logger
	} else {
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		e.logger = logger.GetLogger()
	}

	e.store = o.store
	if e.store == nil {
		e.store = credentials.NewKeyringStore(cfg.API.BaseURL)
	}

	if o.interactive != nil {
		e.interactive = *o.interactive
	} else {
		e.interactive = term.IsTerminal(int(syscall.Stdin))
	}
	if e.prompt == nil {
		e.prompt = loginselect.PromptUserType
	}
	if e.readPass == nil {
		e.readPass = e.readTerminalPassword
	}
	if e.readLine == nil {
		e.readLine = promptLine
	}

	e.client = transport.New(cfg.Transport(), e.store,
		transport.WithLogger(e.logger),
		transport.WithRedirect(e.onRedirect),
	)
	e.auth = auth.NewService(e.client, e.logger)
	e.state = session.NewState(e.auth)
	e.state.Initialize()

	return e, nil
}

// onRedirect is the transport's redirect callback: the CLI equivalent of
// navigating to the login screen
func (e *env) onRedirect(string) {
	e.expireOnce.Do(func() {
		e.state.Expire()
		fmt.Fprintln(e.errOut, ux.Styles.Warning.Render(SessionExpiredNotice))
		close(e.expired)
	})
}

// finish maps a call error to the command's result. A forced logout waits
// for the redirect so the notice is printed before the process exits.
func (e *env) finish(err error) error {
	if err == nil {
		return nil
	}

	apiErr, isAPI := transport.AsError(err)
	if transport.IsCancelled(err) || (isAPI && apiErr.Kind == transport.KindUnauthorized) {
		select {
		case <-e.expired:
		case <-time.After(e.cfg.API.RedirectDelay + time.Second):
		}
		return ErrSessionExpired
	}
	return err
}

// requireSession fails fast when nothing is stored, before any request is made
func (e *env) requireSession() error {
	if !e.state.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// requirePermission applies the role table before calling the backend
func (e *env) requirePermission(p models.Permission) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	if !e.state.HasPermission(p) {
		role := "unknown"
		if user := e.state.User(); user != nil {
			role = string(user.Role)
		}
		return fmt.Errorf("your role (%s) does not have the %s permission", role, p)
	}
	return nil
}

func (e *env) readTerminalPassword() (string, error) {
	fmt.Fprint(e.errOut, "Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(e.errOut) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
