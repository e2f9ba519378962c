// Spotify Web API implementation of [Player]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/djx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// spotifyScopes cover playback control and device inspection.
var spotifyScopes = []string{
	"user-modify-playback-state",
	"user-read-playback-state",
	"user-read-private",
}

// SpotifyService implements [Player] and [OAuthService] against the Spotify
// Web API. Uses [oauth2] for token management; expired access tokens are
// refreshed silently by the token source as long as a refresh token exists.
type SpotifyService struct {
	config     *oauth2.Config
	source     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyService creates a Spotify client from application credentials.
func NewSpotifyService(creds shared.SpotifyConfig) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate installs a token on the client. The token may be expired as
// long as it carries a refresh token; the source refreshes it on first use.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no usable token", shared.ErrAuthFailed)
	}

	s.source = s.config.TokenSource(ctx, token)
	return nil
}

// CurrentToken returns the token currently held by the source, forcing a
// silent refresh when the cached access token has expired.
func (s *SpotifyService) CurrentToken() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrAuthFailed)
	}

	token, err := s.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return token, nil
}

// doRequest performs one authenticated, rate-limited request against the API.
// A nil result skips response decoding (many player endpoints return 204).
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token, err := s.CurrentToken()
	if err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Devices lists the account's available Spotify Connect devices in API order.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []Device `json:"devices"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	return response.Devices, nil
}

// SearchTracks runs a track search scoped to the user's market and returns
// up to limit results.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{
		"q":      {query},
		"type":   {"track"},
		"limit":  {fmt.Sprintf("%d", limit)},
		"market": {"from_token"},
	}

	var response struct {
		Tracks struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	return response.Tracks.Items, nil
}

// StartPlayback starts playing the given track URIs on the target device.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs to play", shared.ErrInvalidArgument)
	}

	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	body := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// QueueTrack appends one track URI to the device's playback queue.
func (s *SpotifyService) QueueTrack(ctx context.Context, deviceID, uri string) error {
	if uri == "" {
		return fmt.Errorf("%w: track URI is required", shared.ErrInvalidArgument)
	}

	params := url.Values{"uri": {uri}}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}

	return s.doRequest(ctx, http.MethodPost, "/me/player/queue?"+params.Encode(), nil, nil)
}
