package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Jake-Brewer/auto-commit/internal/config"
	"github.com/Jake-Brewer/auto-commit/internal/message"
	"github.com/Jake-Brewer/auto-commit/internal/review"
)

// openStore opens the review database and brings the schema current.
func openStore(ctx context.Context) (*review.Store, error) {
	store, err := review.NewStore(databasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open review store: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// databasePath resolves the configured database location, defaulting to
// the user's data directory.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		return config.DefaultDBPath()
	}
	return config.ExpandPath(dbPath)
}

// watchRoot resolves the configured watch root to an absolute directory.
func watchRoot() (string, error) {
	root := viper.GetString("watch.root")
	if root == "" {
		root = "."
	}
	return resolveRoot(root)
}

// commandRoot prefers an explicitly passed --root flag over the
// configured watch root. Binding the same viper key from several
// commands would have the binds shadow each other, so per-command root
// flags are read directly.
func commandRoot(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("root") {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return "", err
		}
		return resolveRoot(root)
	}
	return watchRoot()
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(config.ExpandPath(root))
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s is not a directory", abs)
	}

	return abs, nil
}

// relTo shortens an absolute path for display when it sits under base.
func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// newGenerator builds the configured message generator. Anything other
// than the heuristic gets the heuristic as terminal fallback so commits
// never stall on an unreachable model.
func newGenerator() (message.Generator, error) {
	gen, err := message.NewGenerator(message.Config{
		Provider: viper.GetString("message.provider"),
		BaseURL:  viper.GetString("message.base_url"),
		Model:    viper.GetString("message.model"),
		Timeout:  viper.GetDuration("message.timeout"),
	})
	if err != nil {
		return nil, err
	}
	if gen.Name() == "heuristic" {
		return gen, nil
	}

	fallback, err := message.NewGenerator(message.Config{Provider: "heuristic"})
	if err != nil {
		return nil, err
	}
	return message.WithFallback(gen, fallback), nil
}
