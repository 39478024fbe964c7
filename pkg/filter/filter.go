// Package filter applies user-supplied regex filters to collected content.
package filter

import (
	"regexp"

	"github.com/rs/zerolog"
)

// Filter matches strings against an optional user-supplied pattern.
// An empty or invalid pattern matches everything, so a bad filter
// degrades to pass-through instead of silently dropping data.
type Filter struct {
	re *regexp.Regexp
}

// New compiles pattern into a Filter. Invalid patterns are logged and
// ignored.
func New(pattern string, log zerolog.Logger) *Filter {
	if pattern == "" {
		return &Filter{}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("invalid filter pattern, matching everything")
		return &Filter{}
	}

	return &Filter{re: re}
}

// Match reports whether s passes the filter. The match is unanchored.
func (f *Filter) Match(s string) bool {
	if f.re == nil {
		return true
	}
	return f.re.MatchString(s)
}
