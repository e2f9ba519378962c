package brain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/djx/internal/shared"
)

// stubGenerator returns canned responses keyed by model name and records the
// order in which models were tried.
type stubGenerator struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (g *stubGenerator) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	g.calls = append(g.calls, model)
	if err, ok := g.errs[model]; ok {
		return "", err
	}
	return g.responses[model], nil
}

// stubKeys is a fixed API key source.
type stubKeys struct{ key string }

func (k stubKeys) APIKey() string { return k.key }

func TestResolver(t *testing.T) {
	candidates := Candidates([]string{"model-a", "model-b", "model-c"})

	t.Run("Candidates", func(t *testing.T) {
		if len(candidates) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(candidates))
		}
		for i, c := range candidates {
			if c.Priority != i+1 {
				t.Errorf("expected priority %d for %s, got %d", i+1, c.Name, c.Priority)
			}
		}
	})

	t.Run("First Candidate Wins", func(t *testing.T) {
		gen := &stubGenerator{
			responses: map[string]string{
				"model-a": `{"reasoning": "clear genre", "search_query": "genre:techno dark"}`,
			},
		}
		r := NewResolver(gen, stubKeys{key: "test_key"}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "play some dark techno")

		if query.SearchTerms != "genre:techno dark" {
			t.Errorf("expected model query, got %q", query.SearchTerms)
		}
		if query.SourceModel != "model-a" {
			t.Errorf("expected source model-a, got %q", query.SourceModel)
		}
		if query.Fallback() {
			t.Error("expected model-sourced query, not fallback")
		}
		if len(gen.calls) != 1 {
			t.Errorf("expected 1 call, got %d: %v", len(gen.calls), gen.calls)
		}
	})

	t.Run("Cascade Advances Past Failures", func(t *testing.T) {
		gen := &stubGenerator{
			errs: map[string]error{
				"model-a": shared.ErrQuotaExceeded,
				"model-b": shared.ErrModelUnavailable,
			},
			responses: map[string]string{
				"model-c": `{"reasoning": "ok", "search_query": "lofi focus chill"}`,
			},
		}
		r := NewResolver(gen, stubKeys{key: "test_key"}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "relaxing coding music")

		if query.SourceModel != "model-c" {
			t.Errorf("expected source model-c, got %q", query.SourceModel)
		}
		if len(gen.calls) != 3 {
			t.Errorf("expected 3 calls, got %d: %v", len(gen.calls), gen.calls)
		}
		if gen.calls[0] != "model-a" || gen.calls[1] != "model-b" || gen.calls[2] != "model-c" {
			t.Errorf("expected priority order, got %v", gen.calls)
		}
	})

	t.Run("Later Candidates Not Tried After Success", func(t *testing.T) {
		gen := &stubGenerator{
			errs: map[string]error{"model-a": errors.New("boom")},
			responses: map[string]string{
				"model-b": `{"reasoning": "ok", "search_query": "aggressive genre:phonk"}`,
				"model-c": `{"reasoning": "ok", "search_query": "should never be used"}`,
			},
		}
		r := NewResolver(gen, stubKeys{key: "test_key"}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "aggressive phonk")

		if query.SearchTerms != "aggressive genre:phonk" {
			t.Errorf("expected model-b query, got %q", query.SearchTerms)
		}
		if len(gen.calls) != 2 {
			t.Errorf("expected cascade to stop after model-b, got calls %v", gen.calls)
		}
	})

	t.Run("All Candidates Fail", func(t *testing.T) {
		gen := &stubGenerator{
			errs: map[string]error{
				"model-a": shared.ErrQuotaExceeded,
				"model-b": shared.ErrQuotaExceeded,
				"model-c": shared.ErrQuotaExceeded,
			},
		}
		r := NewResolver(gen, stubKeys{key: "test_key"}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "play some high energy dnb")

		if !query.Fallback() {
			t.Error("expected keyword fallback after exhausted cascade")
		}
		if query.SearchTerms != "high energy dnb" {
			t.Errorf("expected stripped keywords, got %q", query.SearchTerms)
		}
	})

	t.Run("No API Key Skips Cascade", func(t *testing.T) {
		gen := &stubGenerator{}
		r := NewResolver(gen, stubKeys{}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "play some high energy dnb")

		if !query.Fallback() {
			t.Error("expected keyword fallback without a key")
		}
		if len(gen.calls) != 0 {
			t.Errorf("expected no model calls, got %v", gen.calls)
		}
	})

	t.Run("Invalid Model Output Advances Cascade", func(t *testing.T) {
		gen := &stubGenerator{
			responses: map[string]string{
				"model-a": `not json at all`,
				"model-b": `{"reasoning": "ok", "search_query": ""}`,
				"model-c": `{"reasoning": "ok", "search_query": "genre:jazz"}`,
			},
		}
		r := NewResolver(gen, stubKeys{key: "test_key"}, candidates, time.Second, nil)

		query := r.Resolve(context.Background(), "jazz")

		if query.SourceModel != "model-c" {
			t.Errorf("expected model-c to win, got %q", query.SourceModel)
		}
	})

	t.Run("ResolveContinue Excludes Previous Queries", func(t *testing.T) {
		var prompt string
		gen := &stubGenerator{
			responses: map[string]string{
				"model-a": `{"reasoning": "ok", "search_query": "dark industrial techno"}`,
			},
		}
		r := NewResolver(&promptSpy{gen: gen, prompt: &prompt}, stubKeys{key: "test_key"}, candidates[:1], time.Second, nil)

		query := r.ResolveContinue(context.Background(), "play some dark techno", []string{"genre:techno dark", "berlin techno"})

		if query.SearchTerms != "dark industrial techno" {
			t.Errorf("expected continue query, got %q", query.SearchTerms)
		}
		for _, used := range []string{"genre:techno dark", "berlin techno"} {
			if !strings.Contains(prompt, used) {
				t.Errorf("expected prompt to list used query %q", used)
			}
		}
	})
}

func TestKeywordFallback(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Strips Stopwords", "play some high energy dnb", "high energy dnb"},
		{"Lowercases", "Play Some JAZZ", "jazz"},
		{"Polite Request", "can you please play relaxing piano for me", "relaxing piano"},
		{"Stopwords Only", "play some", "play some"},
		{"Whitespace Collapsed", "  play   dark   ambient  ", "dark ambient"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KeywordFallback(tc.input); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestParseDirectives(t *testing.T) {
	t.Run("Plain JSON", func(t *testing.T) {
		parsed, err := parseDirectives(`{"reasoning": "clear genre", "search_query": "genre:house year:1990-1999"}`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if parsed.SearchQuery != "genre:house year:1990-1999" {
			t.Errorf("unexpected query: %q", parsed.SearchQuery)
		}
	})

	t.Run("Markdown Fenced JSON", func(t *testing.T) {
		raw := "```json\n{\"reasoning\": \"ok\", \"search_query\": \"lofi beats\"}\n```"
		parsed, err := parseDirectives(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if parsed.SearchQuery != "lofi beats" {
			t.Errorf("unexpected query: %q", parsed.SearchQuery)
		}
	})

	t.Run("Bare Fence", func(t *testing.T) {
		raw := "```\n{\"search_query\": \"ambient drone\"}\n```"
		parsed, err := parseDirectives(raw)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if parsed.SearchQuery != "ambient drone" {
			t.Errorf("unexpected query: %q", parsed.SearchQuery)
		}
	})

	t.Run("Empty Completion", func(t *testing.T) {
		if _, err := parseDirectives("   "); !errors.Is(err, shared.ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})

	t.Run("Missing Search Query", func(t *testing.T) {
		if _, err := parseDirectives(`{"reasoning": "no idea"}`); !errors.Is(err, shared.ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})
}

// promptSpy captures the prompt before delegating to the wrapped generator.
type promptSpy struct {
	gen    Generator
	prompt *string
}

func (p *promptSpy) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	*p.prompt = prompt
	return p.gen.GenerateContent(ctx, model, prompt)
}
