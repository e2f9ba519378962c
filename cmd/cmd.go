// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// playCommand resolves a music request and starts playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Aliases:   []string{"p"},
		Usage:     "Resolve a music request and play it on Spotify",
		ArgsUsage: `"dark techno"`,
		Action:    r.Play,
	}
}

// continueCommand queues fresh tracks matching the last successful request
func continueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "continue",
		Aliases: []string{"more"},
		Usage:   "Queue fresh tracks with the same vibe as the last request",
		Action:  r.Continue,
	}
}

// devicesCommand lists Spotify Connect devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List available Spotify playback devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Devices,
	}
}

// historyCommand inspects recorded requests
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent music requests and their outcomes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "Write history as CSV to the given file",
			},
		},
		Action: r.History,
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Run the browser OAuth flow and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token state",
				Action: r.AuthStatus,
			},
		},
	}
}

// keyCommand manages the Gemini API key
func keyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage the Gemini API key",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Save a Gemini API key",
				ArgsUsage: "KEY",
				Action:    r.KeySet,
			},
			{
				Name:   "show",
				Usage:  "Show whether a key is configured (masked)",
				Action: r.KeyShow,
			},
		},
	}
}

// tuiCommand launches the interactive prompt
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive prompt",
		Action:  r.TUI,
	}
}
