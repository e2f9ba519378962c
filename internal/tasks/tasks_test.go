package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/player"
	"github.com/desertthunder/djx/internal/repositories"
	"github.com/desertthunder/djx/internal/shared"
	mock "github.com/desertthunder/djx/internal/testing"
	"golang.org/x/oauth2"
)

// scriptedGenerator returns queued responses in order and records prompts.
type scriptedGenerator struct {
	responses []string
	prompts   []string
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	resp := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return resp, nil
}

type fixedKey string

func (k fixedKey) APIKey() string { return string(k) }

// tokenStore is a minimal in-memory player.TokenStore.
type tokenStore struct{ token *oauth2.Token }

func (s *tokenStore) LoadToken() (*oauth2.Token, error)   { return s.token, nil }
func (s *tokenStore) SaveToken(token *oauth2.Token) error { s.token = token; return nil }

type noAuth struct{}

func (noAuth) Authorize(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "fresh"}, nil
}

func newHistory(t *testing.T) *repositories.HistoryRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A single connection keeps every query on the same in-memory database.
	shared.ConfigureDatabase(db, 1, 1)

	history := repositories.NewHistoryRepository(db)
	if err := history.Init(context.Background()); err != nil {
		t.Fatalf("failed to init history: %v", err)
	}

	return history
}

func newOrchestrator(t *testing.T, gen brain.Generator, spotify *mock.MockPlayer, history *repositories.HistoryRepository) *Orchestrator {
	t.Helper()

	resolver := brain.NewResolver(gen, fixedKey("test_key"), brain.Candidates([]string{"model-a"}), time.Second, nil)
	store := &tokenStore{token: &oauth2.Token{AccessToken: "cached"}}
	ctrl := player.NewController(spotify, store, noAuth{}, nil)

	return NewOrchestrator(resolver, ctrl, history, nil)
}

func TestOrchestrator(t *testing.T) {
	ctx := context.Background()

	t.Run("HandleRequest", func(t *testing.T) {
		t.Run("Resolves Then Plays", func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{`{"reasoning": "ok", "search_query": "genre:techno dark"}`}}
			spotify := &mock.MockPlayer{}
			o := newOrchestrator(t, gen, spotify, newHistory(t))

			query, result := o.HandleRequest(ctx, "play some dark techno")

			if query.SearchTerms != "genre:techno dark" {
				t.Errorf("unexpected query %q", query.SearchTerms)
			}
			if query.SourceModel != "model-a" {
				t.Errorf("unexpected source %q", query.SourceModel)
			}
			if result.Outcome != player.Played {
				t.Fatalf("expected Played, got %s (%s)", result.Outcome, result.Message)
			}
			if len(spotify.SearchQueries) != 1 || spotify.SearchQueries[0] != "genre:techno dark" {
				t.Errorf("expected resolved query to reach search, got %v", spotify.SearchQueries)
			}
		})

		t.Run("Records History", func(t *testing.T) {
			history := newHistory(t)
			gen := &scriptedGenerator{responses: []string{`{"reasoning": "ok", "search_query": "lofi focus chill"}`}}
			o := newOrchestrator(t, gen, &mock.MockPlayer{}, history)

			o.HandleRequest(ctx, "relaxing coding music")

			records, err := history.Recent(ctx, 10)
			if err != nil {
				t.Fatalf("failed to read history: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}

			rec := records[0]
			if rec.RawText != "relaxing coding music" {
				t.Errorf("unexpected raw text %q", rec.RawText)
			}
			if rec.SearchQuery != "lofi focus chill" {
				t.Errorf("unexpected query %q", rec.SearchQuery)
			}
			if rec.Outcome != "played" {
				t.Errorf("unexpected outcome %q", rec.Outcome)
			}
			if rec.Track != "Mock Track - Mock Artist" {
				t.Errorf("unexpected track %q", rec.Track)
			}
		})

		t.Run("Nil History Is Fine", func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{`{"reasoning": "ok", "search_query": "jazz"}`}}
			o := newOrchestrator(t, gen, &mock.MockPlayer{}, nil)

			_, result := o.HandleRequest(ctx, "jazz")
			if result.Outcome != player.Played {
				t.Errorf("expected Played, got %s", result.Outcome)
			}
		})
	})

	t.Run("HandleContinue", func(t *testing.T) {
		t.Run("Nothing Played Yet", func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{`{"reasoning": "ok", "search_query": "x"}`}}
			o := newOrchestrator(t, gen, &mock.MockPlayer{}, newHistory(t))

			if _, _, _, err := o.HandleContinue(ctx); err == nil {
				t.Error("expected error when nothing has been played")
			}
		})

		t.Run("History Disabled", func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{`{"reasoning": "ok", "search_query": "x"}`}}
			o := newOrchestrator(t, gen, &mock.MockPlayer{}, nil)

			if _, _, _, err := o.HandleContinue(ctx); err == nil {
				t.Error("expected error when history is disabled")
			}
		})

		t.Run("Queues Fresh Query For Last Request", func(t *testing.T) {
			history := newHistory(t)
			gen := &scriptedGenerator{responses: []string{
				`{"reasoning": "ok", "search_query": "genre:techno dark"}`,
				`{"reasoning": "fresh", "search_query": "dark industrial techno"}`,
			}}
			spotify := &mock.MockPlayer{}
			o := newOrchestrator(t, gen, spotify, history)

			o.HandleRequest(ctx, "play some dark techno")

			rawText, query, result, err := o.HandleContinue(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if rawText != "play some dark techno" {
				t.Errorf("expected original request, got %q", rawText)
			}
			if query.SearchTerms != "dark industrial techno" {
				t.Errorf("expected fresh query, got %q", query.SearchTerms)
			}
			if result.Outcome != player.Played {
				t.Fatalf("expected Played, got %s (%s)", result.Outcome, result.Message)
			}

			// Continue queues rather than restarting playback.
			if len(spotify.QueuedURIs) == 0 {
				t.Error("expected tracks to be queued")
			}
			if len(spotify.PlayedURIs) != 1 {
				t.Errorf("expected only the original play call, got %v", spotify.PlayedURIs)
			}

			// The continue prompt must list the query already used.
			last := gen.prompts[len(gen.prompts)-1]
			if !strings.Contains(last, "genre:techno dark") {
				t.Errorf("expected previous query in continue prompt, got %q", last)
			}
		})

		t.Run("Continue Is Recorded", func(t *testing.T) {
			history := newHistory(t)
			gen := &scriptedGenerator{responses: []string{
				`{"reasoning": "ok", "search_query": "genre:techno dark"}`,
				`{"reasoning": "fresh", "search_query": "dark industrial techno"}`,
			}}
			o := newOrchestrator(t, gen, &mock.MockPlayer{}, history)

			o.HandleRequest(ctx, "play some dark techno")
			if _, _, _, err := o.HandleContinue(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			records, err := history.Recent(ctx, 10)
			if err != nil {
				t.Fatalf("failed to read history: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}

			queries, err := history.QueriesFor(ctx, "play some dark techno")
			if err != nil {
				t.Fatalf("failed to read used queries: %v", err)
			}
			if len(queries) != 2 {
				t.Errorf("expected 2 distinct queries, got %v", queries)
			}
		})
	})
}
