// Package format renders tag lists into Telegram Markdown text.
package format

import (
	"regexp"
	"strings"
)

var mdSpecials = regexp.MustCompile("([_*\\[`])")

// EscapeMarkdown escapes Markdown (v1) control characters so raw tag
// text cannot break the reply formatting.
func EscapeMarkdown(text string) string {
	return mdSpecials.ReplaceAllString(text, `\$1`)
}

var hashtagUnsafe = regexp.MustCompile(`[^0-9A-Za-z_]`)

// Hashtag renders a tag as a Telegram-clickable hashtag reference.
// Characters a hashtag cannot carry collapse to underscores.
func Hashtag(tag string) string {
	cleaned := hashtagUnsafe.ReplaceAllString(strings.TrimPrefix(tag, "#"), "_")
	if cleaned == "" {
		return ""
	}
	return "#" + cleaned
}

// JoinTags renders a tag list one way per category: clickable tags as
// hashtags, plain tags escaped.
func JoinTags(tags []string, clickable bool) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if clickable {
			if h := Hashtag(t); h != "" {
				parts = append(parts, h)
			}
			continue
		}
		parts = append(parts, EscapeMarkdown(t))
	}
	return strings.Join(parts, " ")
}
