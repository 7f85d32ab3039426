package transport

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogoutGuard makes the forced-logout side effects happen at most once per
// episode, however many calls detect an invalid session at the same time.
//
// An episode starts with the first Trigger and ends ResetWindow after the
// redirect has been issued, or earlier through Reset. While it lasts, Active
// reports true and the client cancels every call before dispatch.
type LogoutGuard struct {
	mu      sync.Mutex
	active  bool
	episode uint64

	clear         func() error
	redirect      func(loginPath string)
	loginPath     string
	redirectDelay time.Duration
	resetWindow   time.Duration
	logger        zerolog.Logger
}

// GuardConfig wires a LogoutGuard to its side effects
type GuardConfig struct {
	// Clear removes the stored credential and user record
	Clear func() error
	// Redirect sends the user to the login entry point
	Redirect      func(loginPath string)
	LoginPath     string
	RedirectDelay time.Duration
	ResetWindow   time.Duration
	Logger        zerolog.Logger
}

// NewLogoutGuard creates an inactive guard
func NewLogoutGuard(cfg GuardConfig) *LogoutGuard {
	g := &LogoutGuard{
		clear:         cfg.Clear,
		redirect:      cfg.Redirect,
		loginPath:     cfg.LoginPath,
		redirectDelay: cfg.RedirectDelay,
		resetWindow:   cfg.ResetWindow,
		logger:        cfg.Logger,
	}
	if g.clear == nil {
		g.clear = func() error { return nil }
	}
	if g.redirect == nil {
		g.redirect = func(string) {}
	}
	return g
}

// Active reports whether a logout episode is in progress
func (g *LogoutGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Trigger starts a logout episode unless one is already running. It returns
// true only for the call that started the episode.
func (g *LogoutGuard) Trigger(reason string) bool {
	g.mu.Lock()
	if g.active {
		g.mu.Unlock()
		return false
	}
	g.active = true
	g.episode++
	episode := g.episode
	g.mu.Unlock()

	g.logger.Warn().Str("reason", reason).Msg("Forcing logout")

	if err := g.clear(); err != nil {
		g.logger.Error().Err(err).Msg("Failed to clear stored credentials")
	}

	time.AfterFunc(g.redirectDelay, func() {
		if !g.current(episode) {
			return
		}
		g.redirect(g.loginPath)

		// The process may keep running after the redirect, so lift the guard
		// once navigation has had time to settle
		time.AfterFunc(g.resetWindow, func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.episode == episode {
				g.active = false
			}
		})
	})

	return true
}

// Reset ends the current episode immediately and discards its pending
// redirect. Used after a fresh login.
func (g *LogoutGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.episode++
}

func (g *LogoutGuard) current(episode uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active && g.episode == episode
}
