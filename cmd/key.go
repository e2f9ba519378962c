package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/djx/internal/shared"
	"github.com/urfave/cli/v3"
)

// minKeyLength is a sanity check; Gemini API keys are far longer.
const minKeyLength = 20

// KeySet saves a Gemini API key without launching any UI.
func (r *Runner) KeySet(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	return r.saveKey(key)
}

func (r *Runner) saveKey(key string) error {
	if len(key) < minKeyLength {
		return fmt.Errorf("%w: that doesn't look like a valid key", shared.ErrInvalidArgument)
	}

	if err := r.store.SaveAIKey(key); err != nil {
		return err
	}

	r.writePlain("✓ Gemini API key saved.\n")
	r.writePlain("You can now use: djx \"your request\"\n")

	return nil
}

// KeyShow reports whether a key is configured, masking all but a prefix.
func (r *Runner) KeyShow(ctx context.Context, cmd *cli.Command) error {
	key := r.store.APIKey()
	if key == "" {
		if key = r.config.Credentials.Gemini.APIKey; key == "" {
			r.writePlain("✗ No Gemini API key configured. Set one with: djx --set-key YOUR_KEY\n")
			r.writePlain("  Requests still work via keyword search, without AI normalization.\n")
			return nil
		}
		r.writePlain("✓ Gemini API key configured via config file: %s...\n", mask(key))
		return nil
	}

	r.writePlain("✓ Gemini API key configured: %s...\n", mask(key))
	return nil
}

func mask(key string) string {
	if len(key) <= 6 {
		return "******"
	}
	return key[:6]
}
