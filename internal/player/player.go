// Package player drives one playback request against Spotify: authenticate,
// discover a device, search, play.
//
// Each step runs at most once per request. Failures surface as terminal
// outcomes for the caller to report; nothing here retries silently, so a
// play command is never issued twice for one request.
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/services"
	"github.com/desertthunder/djx/internal/shared"
	"golang.org/x/oauth2"
)

// Outcome is the terminal state of one playback request.
type Outcome int

const (
	Played Outcome = iota
	NoDeviceFound
	AuthFailed
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Played:
		return "played"
	case NoDeviceFound:
		return "no_device_found"
	case AuthFailed:
		return "auth_failed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result describes what happened to one playback request.
type Result struct {
	Outcome    Outcome
	Track      string // "Name - Artist" of the lead track when playback started
	Device     string // device name playback targeted
	TrackCount int    // number of tracks handed to the player
	Message    string // human-readable detail, actionable on failure
}

// Success reports whether playback actually started.
func (r Result) Success() bool {
	return r.Outcome == Played
}

// TokenStore is the slice of the credential store the controller needs.
type TokenStore interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(token *oauth2.Token) error
}

// Authorizer runs the interactive browser-based OAuth flow.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Controller owns the Spotify token lifecycle and the per-request playback
// state machine.
type Controller struct {
	spotify     services.Player
	store       TokenStore
	auth        Authorizer
	logger      *log.Logger
	searchLimit int
}

// NewController creates a playback controller.
func NewController(spotify services.Player, store TokenStore, auth Authorizer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{
		spotify:     spotify,
		store:       store,
		auth:        auth,
		logger:      logger,
		searchLimit: 10,
	}
}

// Play executes the four-step state machine for one resolved query:
// authenticate, discover device, search, play.
func (c *Controller) Play(ctx context.Context, query brain.ResolvedQuery) Result {
	if err := c.Authenticate(ctx); err != nil {
		return Result{Outcome: AuthFailed, Message: fmt.Sprintf("Spotify login failed: %v", err)}
	}

	device, res := c.pickDevice(ctx)
	if res != nil {
		return *res
	}

	tracks, res := c.search(ctx, query.SearchTerms)
	if res != nil {
		return *res
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}

	if err := c.spotify.StartPlayback(ctx, device.ID, uris); err != nil {
		c.logger.Warn("playback command failed", "device", device.Name, "error", err)
		return c.terminal(err, device.Name)
	}

	c.persistToken()

	return Result{
		Outcome:    Played,
		Track:      tracks[0].Label(),
		Device:     device.Name,
		TrackCount: len(tracks),
		Message:    "Playback started.",
	}
}

// Queue searches with the resolved query and appends the results to the
// active device's queue instead of restarting playback. Used by continue
// mode to extend a running session with fresh tracks.
func (c *Controller) Queue(ctx context.Context, query brain.ResolvedQuery) Result {
	if err := c.Authenticate(ctx); err != nil {
		return Result{Outcome: AuthFailed, Message: fmt.Sprintf("Spotify login failed: %v", err)}
	}

	device, res := c.pickDevice(ctx)
	if res != nil {
		return *res
	}

	tracks, res := c.search(ctx, query.SearchTerms)
	if res != nil {
		return *res
	}

	queued := 0
	for _, t := range tracks {
		if err := c.spotify.QueueTrack(ctx, device.ID, t.URI); err != nil {
			c.logger.Warn("queue command failed", "track", t.Label(), "error", err)
			if queued == 0 {
				return c.terminal(err, device.Name)
			}
			break
		}
		queued++
	}

	c.persistToken()

	return Result{
		Outcome:    Played,
		Track:      tracks[0].Label(),
		Device:     device.Name,
		TrackCount: queued,
		Message:    fmt.Sprintf("%d tracks queued.", queued),
	}
}

// ListDevices authenticates and returns the account's devices in API order.
func (c *Controller) ListDevices(ctx context.Context) ([]services.Device, error) {
	if err := c.Authenticate(ctx); err != nil {
		return nil, err
	}
	return c.spotify.Devices(ctx)
}

// Authenticate loads the cached token and installs it on the Spotify client,
// refreshing silently when expired. If no cached token exists or the refresh
// token has been revoked, the interactive browser flow runs exactly once.
func (c *Controller) Authenticate(ctx context.Context) error {
	cached, err := c.store.LoadToken()
	if err != nil {
		c.logger.Warn("failed to read token cache", "error", err)
	}

	if cached != nil {
		if err := c.spotify.Authenticate(ctx, cached); err == nil {
			// Force validation now so the interactive fallback happens
			// here rather than mid-request.
			if current, err := c.spotify.CurrentToken(); err == nil {
				if current.AccessToken != cached.AccessToken {
					c.saveToken(current)
				}
				return nil
			}
			c.logger.Warn("silent token refresh failed, falling back to browser login")
		}
	}

	fresh, err := c.auth.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := c.spotify.Authenticate(ctx, fresh); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	c.saveToken(fresh)
	return nil
}

// pickDevice lists devices and applies the selection policy: an active
// device wins, otherwise the first device in API order. Returns a terminal
// Result when no device is reachable.
func (c *Controller) pickDevice(ctx context.Context) (*services.Device, *Result) {
	devices, err := c.spotify.Devices(ctx)
	if err != nil {
		c.logger.Warn("device discovery failed", "error", err)
		res := c.terminal(err, "")
		return nil, &res
	}

	if len(devices) == 0 {
		return nil, &Result{
			Outcome: NoDeviceFound,
			Message: "No Spotify device found. Open Spotify on any device first.",
		}
	}

	for i := range devices {
		if devices[i].IsActive {
			return &devices[i], nil
		}
	}

	return &devices[0], nil
}

// search runs the track search and converts failure and empty results into
// terminal outcomes.
func (c *Controller) search(ctx context.Context, terms string) ([]services.Track, *Result) {
	tracks, err := c.spotify.SearchTracks(ctx, terms, c.searchLimit)
	if err != nil {
		c.logger.Warn("track search failed", "query", terms, "error", err)
		if errors.Is(err, shared.ErrTokenExpired) {
			res := Result{Outcome: AuthFailed, Message: "Spotify session expired. Run the request again to log in."}
			return nil, &res
		}
		res := Result{Outcome: NotFound, Message: fmt.Sprintf("Search failed: %v", err)}
		return nil, &res
	}

	if len(tracks) == 0 {
		res := Result{Outcome: NotFound, Message: fmt.Sprintf("No tracks found for: %q", terms)}
		return nil, &res
	}

	return tracks, nil
}

// terminal maps an API error from the device or play steps onto the nearest
// terminal outcome. Token expiry means auth, anything else is reported as a
// device problem since the player endpoints fail when the target is gone.
func (c *Controller) terminal(err error, deviceName string) Result {
	if errors.Is(err, shared.ErrTokenExpired) {
		return Result{Outcome: AuthFailed, Message: "Spotify session expired. Run the request again to log in."}
	}
	return Result{
		Outcome: NoDeviceFound,
		Device:  deviceName,
		Message: fmt.Sprintf("Playback device unreachable: %v", err),
	}
}

// persistToken writes back any token the source refreshed during the request.
func (c *Controller) persistToken() {
	current, err := c.spotify.CurrentToken()
	if err != nil {
		return
	}
	cached, _ := c.store.LoadToken()
	if cached == nil || cached.AccessToken != current.AccessToken {
		c.saveToken(current)
	}
}

func (c *Controller) saveToken(token *oauth2.Token) {
	if err := c.store.SaveToken(token); err != nil {
		c.logger.Warn("failed to persist token", "error", err)
	}
}
