package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/djx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser OAuth flow unconditionally and caches the token.
//
// Playback normally triggers this flow on demand; the explicit command
// exists to re-login after revoking access or switching accounts.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("→ Opening browser for Spotify authorization...\n")

	token, err := r.authorizer.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := r.store.SaveToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token cached in %s\n", r.store.Dir())

	return nil
}

// AuthStatus reports the cached token state without touching the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.store.LoadToken()
	if err != nil {
		return err
	}

	if token == nil {
		r.writePlain("✗ No cached Spotify token. Run: djx auth login\n")
		return nil
	}

	r.writePlain("✓ Spotify token cached\n")
	if token.RefreshToken != "" {
		r.writePlain("  Refresh token: present\n")
	} else {
		r.writePlain("  Refresh token: missing (browser login will be required on expiry)\n")
	}

	if token.Expiry.IsZero() {
		return nil
	}

	if time.Now().After(token.Expiry) {
		r.writePlain("  Access token: expired %s (refreshed automatically on next request)\n", token.Expiry.Local().Format(time.RFC822))
	} else {
		r.writePlain("  Access token: valid until %s\n", token.Expiry.Local().Format(time.RFC822))
	}

	return nil
}
