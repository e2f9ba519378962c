package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/formatter"
	"github.com/desertthunder/djx/internal/player"
	"github.com/desertthunder/djx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play handles one music request end to end: resolve, play, report.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	request := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if request == "" {
		return fmt.Errorf("%w: a music request is required, e.g. djx play \"dark techno\"", shared.ErrMissingArgument)
	}

	return r.runRequest(ctx, request)
}

// runRequest executes a request through the orchestrator and reports the
// outcome. Shared by the play command and the bare-argument invocation.
func (r *Runner) runRequest(ctx context.Context, request string) error {
	r.writePlain("→ Request: %q\n", request)

	query, result := r.orchestrator.HandleRequest(ctx, request)

	return r.reportResult(query, result)
}

// Continue queues fresh tracks matching the last successful request.
func (r *Runner) Continue(ctx context.Context, cmd *cli.Command) error {
	request, query, result, err := r.orchestrator.HandleContinue(ctx)
	if err != nil {
		return err
	}

	r.writePlain("→ Continuing: %q\n", request)

	return r.reportResult(query, result)
}

// reportResult prints the resolved query and outcome. Failure outcomes are
// returned as errors so the process exits non-zero in CLI mode.
func (r *Runner) reportResult(query brain.ResolvedQuery, result player.Result) error {
	if query.Fallback() {
		r.writePlain("→ Query: %q (keyword fallback)\n", query.SearchTerms)
	} else {
		r.writePlain("→ Query: %q (model: %s)\n", query.SearchTerms, query.SourceModel)
	}

	if result.Success() {
		r.writePlain("✓ Now playing: %s\n", result.Track)
		r.writePlain("  Device: %s (%d tracks)\n", result.Device, result.TrackCount)
		return nil
	}

	r.writePlain("✗ %s\n", result.Message)

	switch result.Outcome {
	case player.AuthFailed:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Message)
	case player.NoDeviceFound:
		return fmt.Errorf("%w: %s", shared.ErrNoDevice, result.Message)
	case player.NotFound:
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, result.Message)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Message)
	}
}

// Devices lists the account's Spotify Connect devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.controller.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}

	if len(devices) == 0 {
		r.writePlain("No devices found. Open Spotify on any device first.\n")
		return nil
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		marker := " "
		if d.IsActive {
			marker = "▶"
		}
		r.writePlain("%s %d. %s (%s)\n", marker, i+1, d.Name, d.Type)
	}

	return nil
}

// History prints recent requests, optionally exporting them as CSV.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: history database unavailable", shared.ErrMissingConfig)
	}

	records, err := r.history.Recent(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if path := cmd.String("export"); path != "" {
		data, err := formatter.HistoryToCSV(records)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.writePlain("✓ History exported to %s (%d entries)\n", path, len(records))
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	return r.writePlain("%s", formatter.HistoryToText(records))
}
