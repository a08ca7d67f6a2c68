package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/common"
)

// ollamaGenerator implements the Generator interface against an
// Ollama-compatible completion endpoint.
type ollamaGenerator struct {
	httpClient *http.Client
	baseURL    string
	model      string
	retryOpts  common.RetryOptions
}

// ollamaResponse is the non-streaming completion payload.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// newOllamaGenerator creates a generator backed by a local model server.
func newOllamaGenerator(cfg Config) (Generator, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &ollamaGenerator{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

func (g *ollamaGenerator) Name() string {
	return "ollama"
}

// Generate asks the model for a one-line conventional commit message.
func (g *ollamaGenerator) Generate(ctx context.Context, diff string, files []string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("empty diff")
	}

	prompt := buildPrompt(diff, files)

	var raw string
	err := common.WithRetry(ctx, func() error {
		text, err := g.complete(ctx, prompt)
		if err != nil {
			return err
		}
		raw = text
		return nil
	}, g.retryOpts)
	if err != nil {
		return "", fmt.Errorf("ollama generation failed: %w", err)
	}

	return sanitizeMessage(raw)
}

// complete performs a single non-streaming completion request.
// Server-side and transport failures are marked retryable; client
// errors abort immediately.
func (g *ollamaGenerator) complete(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]any{
		"model":  g.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.3,
			"stop":        []string{"```"},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("failed to marshal request: %w", err), Retryable: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
		return "", &common.RetryableError{Err: apiErr, Retryable: resp.StatusCode >= http.StatusInternalServerError}
	}

	var response ollamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &common.RetryableError{Err: fmt.Errorf("failed to parse response: %w", err), Retryable: false}
	}

	return response.Response, nil
}

// buildPrompt formats the diff and changed file list for the model.
func buildPrompt(diff string, files []string) string {
	var b strings.Builder

	b.WriteString(`You are a helpful assistant that generates concise, descriptive git commit messages.

Based on the following git diff, generate a single line commit message following conventional commit format:
- Use format: type(scope): description
- Types: feat, fix, docs, style, refactor, test, chore
- Keep description under 72 characters
- Be specific about what changed

`)

	if len(files) > 0 {
		b.WriteString("Changed files:\n")
		for _, f := range files {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Git diff:\n```\n")
	b.WriteString(diff)
	b.WriteString("\n```\n\nCommit message:")

	return b.String()
}
