// package services defines clients for the external APIs djx talks to.
//
// Spotify (playback control) lives here; the Gemini client lives in the
// brain package next to the cascade that drives it.
package services

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
)

// Player defines the Spotify operations the playback pipeline depends on.
type Player interface {
	// Authenticate installs a token (cached or freshly exchanged) on the
	// client. Subsequent API calls refresh it silently when possible.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// CurrentToken returns the active token, including any silent refresh
	// performed since Authenticate, so callers can persist it.
	CurrentToken() (*oauth2.Token, error)

	// Devices lists the account's Spotify Connect devices in API order.
	Devices(ctx context.Context) ([]Device, error)

	// SearchTracks runs a track search and returns up to limit results.
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)

	// StartPlayback starts playing the given track URIs on a device.
	StartPlayback(ctx context.Context, deviceID string, uris []string) error

	// QueueTrack appends one track URI to a device's playback queue.
	QueueTrack(ctx context.Context, deviceID string, uri string) error

	// Name returns the service name for display and logging.
	Name() string
}

// OAuthService is implemented by services supporting the browser-based
// authorization-code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
}

// Device represents a Spotify Connect endpoint reachable for playback.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent int    `json:"volume_percent"`
}

// Track represents a Spotify track returned from search.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Label renders a track as "Name - Artist" for display.
func (t Track) Label() string {
	artist := "Unknown Artist"
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return strings.TrimSpace(t.Name) + " - " + artist
}
