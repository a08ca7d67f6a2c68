package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// maxMessageLength is the longest subject line a generator may return.
// Anything longer is treated as the model rambling rather than answering.
const maxMessageLength = 100

// Generator produces a one-line commit message for a staged diff.
type Generator interface {
	Generate(ctx context.Context, diff string, files []string) (string, error)
	Name() string
}

// Config holds generator configuration.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewGenerator creates a commit message generator based on the provided configuration.
func NewGenerator(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return newOllamaGenerator(cfg)
	case "heuristic":
		return newHeuristicGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported message provider: %s", cfg.Provider)
	}
}

// WithFallback returns a Generator that consults fallback when primary fails.
func WithFallback(primary, fallback Generator) Generator {
	return &fallbackGenerator{primary: primary, fallback: fallback}
}

type fallbackGenerator struct {
	primary  Generator
	fallback Generator
}

func (g *fallbackGenerator) Name() string {
	return g.primary.Name()
}

func (g *fallbackGenerator) Generate(ctx context.Context, diff string, files []string) (string, error) {
	msg, err := g.primary.Generate(ctx, diff, files)
	if err == nil {
		return msg, nil
	}

	slog.Warn("commit message generation failed, using fallback",
		"generator", g.primary.Name(),
		"fallback", g.fallback.Name(),
		"error", err)

	return g.fallback.Generate(ctx, diff, files)
}

// sanitizeMessage reduces a raw model completion to a usable subject line.
func sanitizeMessage(raw string) (string, error) {
	msg := strings.TrimSpace(raw)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}

	if msg == "" {
		return "", fmt.Errorf("model returned an empty message")
	}
	if len(msg) > maxMessageLength {
		return "", fmt.Errorf("model returned an implausible message (%d chars)", len(msg))
	}

	return msg, nil
}
