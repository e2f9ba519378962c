// Package brain converts a natural language music request into a Spotify
// search query using Google's Gemini API.
//
// Candidate models are tried in order and the first valid result wins.
// Quota, availability, and timeout failures advance the cascade; if every
// model fails or no API key is configured, a deterministic keyword fallback
// produces the query instead, so resolution never fails outright.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djx/internal/shared"
)

const searchPromptTemplate = `You are a Spotify search expert. Convert the user's request into a high-performing search query.

User Request: %q

Rules for search_query:
1. Use 'genre:' only for clear genres (e.g. dnb, techno, jazz, classical).
2. Use 'year:' for era requests (e.g. year:1990-1995).
3. For moods (relaxing, aggressive, dark), do NOT use 'genre:' - use keywords only.

Examples:
  "relaxing coding music"  ->  "lofi focus chill"
  "90s house music"        ->  "genre:house year:1990-1999"
  "aggressive phonk"       ->  "aggressive genre:phonk"

Output JSON: { "reasoning": "short explanation of your choices", "search_query": "the query" }`

const continuePromptTemplate = `You are a Spotify search expert. The user asked for %q and wants more music in the same vein, but with fresh results.

Previously used queries (do NOT repeat these):
%s

Produce one new search query with the same mood and genre that differs from every query above.

Rules for search_query:
1. Use 'genre:' only for clear genres (e.g. dnb, techno, jazz, classical).
2. Use 'year:' for era requests (e.g. year:1990-1995).
3. For moods (relaxing, aggressive, dark), do NOT use 'genre:' - use keywords only.

Output JSON: { "reasoning": "short explanation of your choices", "search_query": "the query" }`

// Candidate is one entry in the ordered model fallback list. Lower priority
// values are tried first.
type Candidate struct {
	Name     string
	Priority int
}

// Candidates builds the ordered candidate list from configured model names.
func Candidates(models []string) []Candidate {
	candidates := make([]Candidate, 0, len(models))
	for i, name := range models {
		candidates = append(candidates, Candidate{Name: name, Priority: i + 1})
	}
	return candidates
}

// ResolvedQuery is the final search string handed to the playback stage.
// SourceModel is empty when the keyword fallback produced the query.
type ResolvedQuery struct {
	SearchTerms string
	SourceModel string
}

// Fallback reports whether the query came from the keyword path.
func (q ResolvedQuery) Fallback() bool {
	return q.SourceModel == ""
}

// directives is the structured output requested from the model.
type directives struct {
	Reasoning   string `json:"reasoning"`
	SearchQuery string `json:"search_query"`
}

// Generator issues one normalization call against a named model.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// APIKeySource supplies the Gemini API key, read fresh per request.
type APIKeySource interface {
	APIKey() string
}

// Resolver turns raw user text into a ResolvedQuery via the model cascade.
type Resolver struct {
	gen        Generator
	keys       APIKeySource
	candidates []Candidate
	timeout    time.Duration
	logger     *log.Logger
}

// NewResolver creates a Resolver over the given generator and candidate list.
func NewResolver(gen Generator, keys APIKeySource, candidates []Candidate, timeout time.Duration, logger *log.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{gen: gen, keys: keys, candidates: candidates, timeout: timeout, logger: logger}
}

// Resolve converts a music request into a search query. It always returns a
// usable query: the first candidate model that yields a valid one, or the
// keyword fallback when the cascade is exhausted or no key is configured.
func (r *Resolver) Resolve(ctx context.Context, rawText string) ResolvedQuery {
	prompt := fmt.Sprintf(searchPromptTemplate, rawText)
	return r.resolve(ctx, rawText, prompt)
}

// ResolveContinue produces a fresh query for a previously played request,
// instructing the model to avoid the queries already used. Fallback behavior
// matches Resolve.
func (r *Resolver) ResolveContinue(ctx context.Context, prevRequest string, prevQueries []string) ResolvedQuery {
	used := "  (none)"
	if len(prevQueries) > 0 {
		used = "  - " + strings.Join(prevQueries, "\n  - ")
	}
	prompt := fmt.Sprintf(continuePromptTemplate, prevRequest, used)
	return r.resolve(ctx, prevRequest, prompt)
}

func (r *Resolver) resolve(ctx context.Context, rawText, prompt string) ResolvedQuery {
	key := r.keys.APIKey()
	if key == "" {
		r.logger.Info("no Gemini API key configured, using keyword fallback")
		return ResolvedQuery{SearchTerms: KeywordFallback(rawText)}
	}

	for _, candidate := range r.candidates {
		query, err := r.tryCandidate(ctx, candidate.Name, prompt)
		if err != nil {
			r.logger.Warn("candidate model failed", "model", candidate.Name, "error", err)
			continue
		}

		r.logger.Info("query resolved", "model", candidate.Name, "query", query)
		return ResolvedQuery{SearchTerms: query, SourceModel: candidate.Name}
	}

	r.logger.Warn("all candidate models failed, using keyword fallback")
	return ResolvedQuery{SearchTerms: KeywordFallback(rawText)}
}

// tryCandidate issues one bounded call and validates the structured output.
func (r *Resolver) tryCandidate(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.gen.GenerateContent(callCtx, model, prompt)
	if err != nil {
		return "", err
	}

	parsed, err := parseDirectives(raw)
	if err != nil {
		return "", err
	}

	return parsed.SearchQuery, nil
}

// parseDirectives decodes the model's JSON output, tolerating markdown code
// fences some models wrap around JSON responses.
func parseDirectives(raw string) (*directives, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, shared.ErrEmptyCompletion
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var parsed directives
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmptyCompletion, err)
	}

	if strings.TrimSpace(parsed.SearchQuery) == "" {
		return nil, shared.ErrEmptyCompletion
	}

	parsed.SearchQuery = strings.TrimSpace(parsed.SearchQuery)
	return &parsed, nil
}
