// Package extract scans free text for Telegram group/channel references.
package extract

import (
	"regexp"
	"sort"
)

// The invite pattern must run before the plain URL pattern so that
// t.me/joinchat/<hash> yields the hash, not "joinchat".
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`t\.me/joinchat/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`t\.me/\+([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`https?://t\.me/([a-zA-Z0-9_]+)`),
	regexp.MustCompile(`@([a-zA-Z0-9_]+)`),
}

type found struct {
	pos int
	id  string
}

// GroupLinks extracts group/channel identifiers from a sequence of text
// blobs. It recognizes full t.me URLs, @-handles and invite-hash links,
// collapses duplicates across all patterns and blobs, and preserves
// first-seen order by text position, not by link form.
func GroupLinks(texts []string) []string {
	seen := make(map[string]struct{})
	var links []string

	for _, text := range texts {
		var matches []found
		for _, p := range patterns {
			for _, loc := range p.FindAllStringSubmatchIndex(text, -1) {
				id := text[loc[2]:loc[3]]
				if id == "joinchat" {
					continue
				}
				matches = append(matches, found{pos: loc[0], id: id})
			}
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

		for _, m := range matches {
			if _, ok := seen[m.id]; ok {
				continue
			}
			seen[m.id] = struct{}{}
			links = append(links, m.id)
		}
	}

	return links
}
