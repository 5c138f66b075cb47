package chat

import "regexp"

const (
	placeholderOpen  = ":__"
	placeholderClose = "__:"
)

var placeholderPattern = regexp.MustCompile(`:__(.+?)__:`)

// Placeholder encodes an inline image URL as a message token.
func Placeholder(url string) string {
	return placeholderOpen + url + placeholderClose
}

// ReplacePlaceholders substitutes every placeholder token in s with fn(url).
// Text outside the tokens is passed through untouched.
func ReplacePlaceholders(s string, fn func(url string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		m := placeholderPattern.FindStringSubmatch(tok)
		return fn(m[1])
	})
}

// SplitPlaceholders splits s into alternating text and image segments in
// order. Segments with Image set carry the decoded URL in Value.
func SplitPlaceholders(s string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > last {
			out = append(out, Segment{Value: s[last:loc[0]]})
		}
		out = append(out, Segment{Value: s[loc[2]:loc[3]], Image: true})
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, Segment{Value: s[last:]})
	}
	return out
}

// Segment is a piece of a flattened message.
type Segment struct {
	Value string
	Image bool
}
