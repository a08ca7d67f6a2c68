// Package message generates commit messages from staged git diffs.
// It supports a local Ollama-compatible model server with retry logic,
// plus a diff-counting heuristic used as a fallback when no model is
// reachable.
package message
