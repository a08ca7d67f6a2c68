package rules

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// globCache compiles fnmatch-style patterns once and reuses them across
// classifications. Pattern text is immutable, so entries never expire.
// A pattern that cannot be compiled is cached as nil and matches nothing.
type globCache struct {
	compiled map[string]*regexp.Regexp
	mu       sync.RWMutex
}

func newGlobCache() *globCache {
	return &globCache{compiled: make(map[string]*regexp.Regexp)}
}

func (c *globCache) get(pattern string) *regexp.Regexp {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re
	}

	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		slog.Warn("unusable pattern, matches nothing", "pattern", pattern, "error", err)
		re = nil
	}

	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re
}

// translate converts an fnmatch-style glob into an anchored regular
// expression. Unlike path.Match, * crosses directory separators, so a
// root-level *.log also claims sub/debug.log.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// No closing bracket, treat as a literal.
				b.WriteString(`\[`)
				continue
			}
			set := strings.ReplaceAll(pattern[i+1:j], `\`, `\\`)
			switch {
			case strings.HasPrefix(set, "!"):
				set = "^" + set[1:]
			case strings.HasPrefix(set, "^"):
				set = `\^` + set[1:]
			}
			b.WriteString("[" + set + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteByte('$')
	return b.String()
}
