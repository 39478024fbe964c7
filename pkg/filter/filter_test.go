package filter

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestFilterMatch(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{"empty pattern passes everything", "", "anything", true},
		{"invalid pattern passes everything", "(", "anything", true},
		{"anchored prefix matches", "^news", "news_daily", true},
		{"anchored prefix rejects", "^news", "chat_daily", false},
		{"unanchored substring matches", "crypto", "daily crypto digest", true},
		{"unanchored substring rejects", "crypto", "daily stock digest", false},
		{"case sensitive by default", "News", "news_daily", false},
		{"inline flag honored", "(?i)news", "Breaking News", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.pattern, log)
			if got := f.Match(tt.input); got != tt.want {
				t.Errorf("New(%q).Match(%q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
			}
		})
	}
}
