// Package store persists mutable user credentials: the Gemini API key and
// the Spotify OAuth token cache.
//
// Both records live as JSON files in the per-user config directory.
// The store performs no validation beyond existence and non-emptiness;
// ownership is split by convention: the query resolver reads the API key,
// the playback controller reads and writes the token cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	credentialsFile = "config.json"
	tokenCacheFile  = ".spotify_cache"
)

// Credentials holds the user-supplied Gemini API key. The Spotify client
// id and secret are compiled into the binary and are not stored here.
type Credentials struct {
	GeminiAPIKey string `json:"gemini_api_key"`
}

// cachedToken is the on-disk shape of the Spotify token cache.
type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store reads and writes credential files under a single directory.
// Reads are fresh on every call so concurrent processes observe saved state.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// LoadCredentials reads the saved credentials. A missing or unreadable file
// yields empty credentials rather than an error, matching first-run state.
func (s *Store) LoadCredentials() Credentials {
	var creds Credentials

	data, err := os.ReadFile(filepath.Join(s.dir, credentialsFile))
	if err != nil {
		return creds
	}

	// A corrupt file is treated as first-run; the next save rewrites it.
	_ = json.Unmarshal(data, &creds)
	creds.GeminiAPIKey = strings.TrimSpace(creds.GeminiAPIKey)

	return creds
}

// APIKey returns the saved Gemini API key, re-read from disk on every call.
func (s *Store) APIKey() string {
	return s.LoadCredentials().GeminiAPIKey
}

// SaveAIKey persists the Gemini API key.
func (s *Store) SaveAIKey(key string) error {
	creds := s.LoadCredentials()
	creds.GeminiAPIKey = strings.TrimSpace(key)

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, credentialsFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// LoadToken reads the cached Spotify OAuth token. Returns (nil, nil) when no
// token has been cached yet.
func (s *Store) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, tokenCacheFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}

	if cached.AccessToken == "" && cached.RefreshToken == "" {
		return nil, nil
	}

	return &oauth2.Token{
		AccessToken:  cached.AccessToken,
		TokenType:    cached.TokenType,
		RefreshToken: cached.RefreshToken,
		Expiry:       cached.ExpiresAt,
	}, nil
}

// SaveToken persists a Spotify OAuth token to the cache file.
func (s *Store) SaveToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}

	cached := cachedToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, tokenCacheFile), data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}
