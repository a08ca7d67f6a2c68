package message

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{
			name:     "ollama provider",
			config:   Config{Provider: "ollama"},
			wantName: "ollama",
		},
		{
			name:     "provider is case insensitive",
			config:   Config{Provider: "Ollama"},
			wantName: "ollama",
		},
		{
			name:     "heuristic provider",
			config:   Config{Provider: "heuristic"},
			wantName: "heuristic",
		},
		{
			name:    "unsupported provider",
			config:  Config{Provider: "gpt9"},
			wantErr: true,
		},
		{
			name:    "empty provider",
			config:  Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gen.Name())
		})
	}
}

// stubGenerator returns a fixed message or error.
type stubGenerator struct {
	err  error
	name string
	msg  string
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(_ context.Context, _ string, _ []string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.msg, nil
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary succeeds", func(t *testing.T) {
		gen := WithFallback(
			&stubGenerator{name: "primary", msg: "feat: primary message"},
			&stubGenerator{name: "backup", msg: "chore: backup message"},
		)

		msg, err := gen.Generate(ctx, "some diff", nil)
		require.NoError(t, err)
		assert.Equal(t, "feat: primary message", msg)
		assert.Equal(t, "primary", gen.Name())
	})

	t.Run("primary fails", func(t *testing.T) {
		gen := WithFallback(
			&stubGenerator{name: "primary", err: errors.New("connection refused")},
			&stubGenerator{name: "backup", msg: "chore: backup message"},
		)

		msg, err := gen.Generate(ctx, "some diff", nil)
		require.NoError(t, err)
		assert.Equal(t, "chore: backup message", msg)
	})

	t.Run("both fail", func(t *testing.T) {
		gen := WithFallback(
			&stubGenerator{name: "primary", err: errors.New("connection refused")},
			&stubGenerator{name: "backup", err: errors.New("also broken")},
		)

		_, err := gen.Generate(ctx, "some diff", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "also broken")
	})
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "trims whitespace",
			raw:  "  feat: add watcher  \n",
			want: "feat: add watcher",
		},
		{
			name: "keeps first line only",
			raw:  "fix(rules): handle empty pattern\n\nLonger explanation the model added anyway.",
			want: "fix(rules): handle empty pattern",
		},
		{
			name:    "empty response",
			raw:     "   \n  ",
			wantErr: true,
		},
		{
			name:    "implausibly long response",
			raw:     strings.Repeat("x", maxMessageLength+1),
			wantErr: true,
		},
		{
			name: "exactly at the limit",
			raw:  strings.Repeat("x", maxMessageLength),
			want: strings.Repeat("x", maxMessageLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeMessage(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
