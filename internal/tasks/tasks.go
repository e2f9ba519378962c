// package tasks sequences the request-resolution pipeline: query
// normalization, then playback, with timing and history as cross-cutting
// concerns.
//
// The orchestrator is the single entry point for both the CLI and the TUI.
// Resolution always completes (success or fallback) before playback starts;
// there is no speculative overlap because the search query is a hard input
// to the playback stage.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/player"
	"github.com/desertthunder/djx/internal/repositories"
	"github.com/desertthunder/djx/internal/shared"
)

// Orchestrator wires the query resolver to the playback controller for one
// request at a time.
type Orchestrator struct {
	resolver *brain.Resolver
	player   *player.Controller
	history  *repositories.HistoryRepository // nil disables history
	logger   *log.Logger
}

// NewOrchestrator creates an orchestrator. history may be nil.
func NewOrchestrator(resolver *brain.Resolver, ctrl *player.Controller, history *repositories.HistoryRepository, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Orchestrator{resolver: resolver, player: ctrl, history: history, logger: logger}
}

// HandleRequest resolves the raw text into a search query, then plays it.
// The playback result is returned unchanged; the resolved query is exposed
// so callers can show what was searched.
func (o *Orchestrator) HandleRequest(ctx context.Context, rawText string) (brain.ResolvedQuery, player.Result) {
	start := time.Now()

	query := o.resolver.Resolve(ctx, rawText)
	o.logger.Info("request resolved",
		"request", rawText, "query", query.SearchTerms, "model", modelLabel(query))

	result := o.player.Play(ctx, query)
	o.logger.Info("request handled",
		"outcome", result.Outcome.String(), "track", result.Track, "elapsed", time.Since(start))

	o.record(ctx, rawText, query, result)

	return query, result
}

// HandleContinue extends the most recent successful request with fresh
// tracks: it asks the resolver for a new query that avoids the searches
// already used for that request, then queues the results instead of
// restarting playback. Returns an error when nothing has been played yet.
func (o *Orchestrator) HandleContinue(ctx context.Context) (string, brain.ResolvedQuery, player.Result, error) {
	if o.history == nil {
		return "", brain.ResolvedQuery{}, player.Result{}, fmt.Errorf("%w: history is disabled", shared.ErrInvalidInput)
	}

	last, err := o.history.LastPlayed(ctx)
	if err != nil {
		return "", brain.ResolvedQuery{}, player.Result{}, err
	}
	if last == nil {
		return "", brain.ResolvedQuery{}, player.Result{}, fmt.Errorf("%w: nothing playing yet, run a normal request first", shared.ErrInvalidInput)
	}

	used, err := o.history.QueriesFor(ctx, last.RawText)
	if err != nil {
		o.logger.Warn("failed to load previous queries", "error", err)
	}

	query := o.resolver.ResolveContinue(ctx, last.RawText, used)
	o.logger.Info("continue resolved",
		"request", last.RawText, "query", query.SearchTerms, "model", modelLabel(query))

	result := o.player.Queue(ctx, query)
	o.record(ctx, last.RawText, query, result)

	return last.RawText, query, result, nil
}

// record writes the request to history. Failures are logged and swallowed,
// history must never break playback.
func (o *Orchestrator) record(ctx context.Context, rawText string, query brain.ResolvedQuery, result player.Result) {
	if o.history == nil {
		return
	}

	rec := repositories.RequestRecord{
		RawText:     rawText,
		SearchQuery: query.SearchTerms,
		SourceModel: query.SourceModel,
		Outcome:     result.Outcome.String(),
		Track:       result.Track,
		Device:      result.Device,
	}

	if err := o.history.Record(ctx, rec); err != nil {
		o.logger.Warn("failed to record request history", "error", err)
	}
}

func modelLabel(query brain.ResolvedQuery) string {
	if query.Fallback() {
		return "keyword-fallback"
	}
	return query.SourceModel
}
