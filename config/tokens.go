package config

import (
	"regexp"
	"strconv"
)

// Speech text may reference live watch values as {watch:ID}; the token
// is replaced with the watch's current reading just before speaking.
var watchTokenRe = regexp.MustCompile(`\{watch:(\d+)\}`)

// WatchTokens returns the watch ids referenced in text, in order.
func WatchTokens(text string) []int {
	var ids []int
	for _, m := range watchTokenRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ReplaceWatchTokens substitutes each {watch:ID} using lookup. A token
// whose value is unavailable becomes "?".
func ReplaceWatchTokens(text string, lookup func(id int) (string, bool)) string {
	return watchTokenRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := watchTokenRe.FindStringSubmatch(m)
		id, err := strconv.Atoi(sub[1])
		if err != nil {
			return "?"
		}
		s, ok := lookup(id)
		if !ok {
			return "?"
		}
		return s
	})
}
