package message

import (
	"context"
	"strings"
)

// heuristicGenerator derives a commit message from the shape of the
// diff alone. It never fails, which makes it the terminal fallback.
type heuristicGenerator struct{}

func newHeuristicGenerator() Generator {
	return heuristicGenerator{}
}

func (heuristicGenerator) Name() string {
	return "heuristic"
}

func (heuristicGenerator) Generate(_ context.Context, diff string, _ []string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "chore: update files", nil
	}

	var added, removed int
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}

	switch {
	case added > removed:
		return "feat: add new functionality", nil
	case removed > added:
		return "refactor: remove code", nil
	default:
		return "chore: update implementation", nil
	}
}
