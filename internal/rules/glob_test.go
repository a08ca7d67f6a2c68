package rules

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "star crosses separators", pattern: "*.log", path: "sub/debug.log", want: true},
		{name: "star same level", pattern: "*.log", path: "debug.log", want: true},
		{name: "suffix must match", pattern: "*.log", path: "debug.log.bak", want: false},
		{name: "question mark single char", pattern: "v?.txt", path: "v1.txt", want: true},
		{name: "question mark not two", pattern: "v?.txt", path: "v10.txt", want: false},
		{name: "character class", pattern: "data[0-9].csv", path: "data7.csv", want: true},
		{name: "character class excludes", pattern: "data[0-9].csv", path: "datax.csv", want: false},
		{name: "negated class", pattern: "data[!0-9].csv", path: "datax.csv", want: true},
		{name: "literal dot", pattern: "a.b", path: "aXb", want: false},
		{name: "unclosed bracket is literal", pattern: "a[b", path: "a[b", want: true},
		{name: "case sensitive", pattern: "*.LOG", path: "debug.log", want: false},
		{name: "regex metacharacters are literal", pattern: "c++*", path: "c++/main.cc", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := regexp.Compile(translate(tt.pattern))
			require.NoError(t, err)
			assert.Equal(t, tt.want, re.MatchString(tt.path))
		})
	}
}

func TestGlobCacheInvalidPattern(t *testing.T) {
	c := newGlobCache()

	assert.Nil(t, c.get("data[9-0].csv"))
	assert.Nil(t, c.get("data[9-0].csv"))
	assert.NotNil(t, c.get("*.go"))
}
