// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/djx/internal/services"
	"golang.org/x/oauth2"
)

// MockPlayer is a configurable test double for [services.Player].
// Unset function fields fall back to benign defaults: one active device,
// one search hit, and successful play/queue commands.
type MockPlayer struct {
	AuthenticateFn func(ctx context.Context, token *oauth2.Token) error
	TokenFn        func() (*oauth2.Token, error)
	DevicesFn      func(ctx context.Context) ([]services.Device, error)
	SearchFn       func(ctx context.Context, query string, limit int) ([]services.Track, error)
	PlayFn         func(ctx context.Context, deviceID string, uris []string) error
	QueueFn        func(ctx context.Context, deviceID, uri string) error

	SearchQueries []string // queries passed to SearchTracks, in order
	PlayedURIs    []string // URIs passed to StartPlayback
	QueuedURIs    []string // URIs passed to QueueTrack
	PlayedDevice  string   // device targeted by the last play/queue call
}

func (m *MockPlayer) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, token)
	}
	return nil
}

func (m *MockPlayer) CurrentToken() (*oauth2.Token, error) {
	if m.TokenFn != nil {
		return m.TokenFn()
	}
	return &oauth2.Token{AccessToken: "mock_access_token"}, nil
}

func (m *MockPlayer) Devices(ctx context.Context) ([]services.Device, error) {
	if m.DevicesFn != nil {
		return m.DevicesFn(ctx)
	}
	return []services.Device{{ID: "device_1", Name: "Mock Speaker", IsActive: true}}, nil
}

func (m *MockPlayer) SearchTracks(ctx context.Context, query string, limit int) ([]services.Track, error) {
	m.SearchQueries = append(m.SearchQueries, query)
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query, limit)
	}
	return []services.Track{{
		ID:      "track_1",
		Name:    "Mock Track",
		Artists: []services.Artist{{Name: "Mock Artist"}},
		URI:     "spotify:track:mock1",
	}}, nil
}

func (m *MockPlayer) StartPlayback(ctx context.Context, deviceID string, uris []string) error {
	m.PlayedDevice = deviceID
	m.PlayedURIs = append(m.PlayedURIs, uris...)
	if m.PlayFn != nil {
		return m.PlayFn(ctx, deviceID, uris)
	}
	return nil
}

func (m *MockPlayer) QueueTrack(ctx context.Context, deviceID, uri string) error {
	m.PlayedDevice = deviceID
	m.QueuedURIs = append(m.QueuedURIs, uri)
	if m.QueueFn != nil {
		return m.QueueFn(ctx, deviceID, uri)
	}
	return nil
}

func (m *MockPlayer) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error { return nil }

var _ io.ReadCloser = &FCloser{}
