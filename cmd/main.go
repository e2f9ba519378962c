package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/player"
	"github.com/desertthunder/djx/internal/repositories"
	"github.com/desertthunder/djx/internal/services"
	"github.com/desertthunder/djx/internal/shared"
	"github.com/desertthunder/djx/internal/store"
	"github.com/desertthunder/djx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// keySource reads the Gemini key from the store on every call, falling back
// to the config file value when the user never saved one.
type keySource struct {
	store    *store.Store
	fallback string
}

func (k keySource) APIKey() string {
	if key := k.store.APIKey(); key != "" {
		return key
	}
	return k.fallback
}

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config := loadConfig(logger)

	dir, err := shared.ConfigDir()
	if err != nil {
		logger.Fatalf("failed to prepare config directory: %v", err)
	}

	credStore, err := store.New(dir)
	if err != nil {
		logger.Fatalf("failed to open credential store: %v", err)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify)
	if err != nil {
		logger.Fatalf("invalid Spotify credentials: %v", err)
	}

	keys := keySource{store: credStore, fallback: config.Credentials.Gemini.APIKey}
	gemini := brain.NewGeminiClient(keys, nil)
	resolver := brain.NewResolver(
		gemini,
		keys,
		brain.Candidates(config.Brain.Models),
		time.Duration(config.Brain.TimeoutSeconds)*time.Second,
		shared.WithLogger(logger, "component", "brain"),
	)

	playerLogger := shared.WithLogger(logger, "component", "player")
	authorizer := player.NewBrowserAuthorizer(spotifyService, config.CallbackAddr(), playerLogger)
	controller := player.NewController(spotifyService, credStore, authorizer, playerLogger)

	history := openHistory(ctx, config, logger)
	orchestrator := tasks.NewOrchestrator(resolver, controller, history, shared.WithLogger(logger, "component", "tasks"))

	runner := NewRunner(RunnerOpts{
		Config:       config,
		Store:        credStore,
		Orchestrator: orchestrator,
		Controller:   controller,
		Authorizer:   authorizer,
		History:      history,
		Logger:       logger,
	})

	app := &cli.Command{
		Name:    "djx",
		Usage:   "Turn a plain-language music request into Spotify playback",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "set-key",
				Usage: "Save a Gemini API key and exit",
			},
		},
		Commands: runner.register(),
		Action:   runner.Root,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

// Root handles bare invocations: --set-key saves the AI key, a text argument
// plays one request, and no arguments launches the interactive prompt.
func (r *Runner) Root(ctx context.Context, cmd *cli.Command) error {
	if key := cmd.String("set-key"); key != "" {
		return r.saveKey(key)
	}

	request := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if request != "" {
		return r.runRequest(ctx, request)
	}

	return r.TUI(ctx, cmd)
}

// loadConfig reads config.toml from the user's config directory, then the
// working directory, falling back to embedded defaults.
func loadConfig(logger *log.Logger) *shared.Config {
	paths := []string{"config.toml"}
	if dir, err := shared.ConfigDir(); err == nil {
		paths = []string{filepath.Join(dir, "config.toml"), "config.toml"}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			logger.Warnf("failed to load config at %s, using defaults: %v", path, err)
			break
		}
		return config
	}

	return shared.DefaultConfig()
}

// openHistory opens the request-history database. History is optional:
// any failure logs a warning and disables it rather than blocking playback.
func openHistory(ctx context.Context, config *shared.Config, logger *log.Logger) *repositories.HistoryRepository {
	path, err := config.DatabasePath()
	if err != nil {
		logger.Warnf("history disabled, cannot resolve database path: %v", err)
		return nil
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		logger.Warnf("history disabled, cannot open database: %v", err)
		return nil
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	history := repositories.NewHistoryRepository(db)
	if err := history.Init(ctx); err != nil {
		logger.Warnf("history disabled, cannot initialize schema: %v", err)
		return nil
	}

	return history
}
