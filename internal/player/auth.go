package player

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djx/internal/server"
	"github.com/desertthunder/djx/internal/services"
	"github.com/desertthunder/djx/internal/shared"
	"golang.org/x/oauth2"
)

// defaultAuthTimeout bounds the wait for the user to finish logging in.
const defaultAuthTimeout = 2 * time.Minute

// BrowserAuthorizer implements [Authorizer] with the interactive
// authorization-code flow: it owns a local callback listener for the
// duration of the flow, opens the system browser, and blocks until the
// redirect arrives, the timeout fires, or the context is cancelled.
type BrowserAuthorizer struct {
	service     services.OAuthService
	addr        string
	timeout     time.Duration
	logger      *log.Logger
	openBrowser func(url string) error
}

// NewBrowserAuthorizer creates an authorizer listening on addr, which must
// match the host and port of the registered redirect URI.
func NewBrowserAuthorizer(service services.OAuthService, addr string, logger *log.Logger) *BrowserAuthorizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BrowserAuthorizer{
		service:     service,
		addr:        addr,
		timeout:     defaultAuthTimeout,
		logger:      logger,
		openBrowser: shared.OpenBrowser,
	}
}

// SetTimeout overrides the default wait bound for the user to finish
// logging in. Non-positive values are ignored.
func (b *BrowserAuthorizer) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Authorize runs the browser flow once and returns the exchanged token.
func (b *BrowserAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := b.service.GetAuthURL(state)
	handler := server.NewOAuthHandler(b.service.GetOAuthConfig(), state)

	httpServer := &http.Server{Addr: b.addr, Handler: handler.Mux()}
	serverErrors := make(chan error, 1)

	go func() {
		b.logger.Info("starting OAuth callback listener", "addr", b.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("error shutting down callback listener", "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if err := b.openBrowser(authURL); err != nil {
		b.logger.Warn("failed to open browser automatically", "error", err)
		b.logger.Info("open this URL in your browser to continue", "url", authURL)
	}

	b.logger.Info("waiting for Spotify authorization", "timeout", b.timeout)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	var result server.OAuthResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback listener error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization not completed within %s", shared.ErrTimeout, b.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
