// Package render turns chat events into the HTML shown by the viewer.
package render

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/onnwee/ytchat-relay/chat"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitizer allows the UGC subset plus class attributes used by the stylesheet.
func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowAttrs("class").OnElements("img", "span", "div")
	})
	return policy
}

func emojiImg(url string) string {
	return `<img class="chat-emoji" src="` + html.EscapeString(url) + `" alt="emoji">`
}

// textWithPlaceholders escapes s and turns each :__url__: token into an image.
func textWithPlaceholders(s string) string {
	var b strings.Builder
	for _, seg := range chat.SplitPlaceholders(s) {
		if seg.Image {
			b.WriteString(emojiImg(seg.Value))
			continue
		}
		b.WriteString(html.EscapeString(seg.Value))
	}
	return b.String()
}

// Message renders a chat message body. Words (split on single spaces) that
// exactly match an emoji token become images; then placeholder tokens in the
// remaining text become images. Everything else is escaped text.
func Message(msg string, emojis map[string]string) template.HTML {
	words := []string{msg}
	if len(emojis) > 0 {
		words = strings.Split(msg, " ")
	}

	var (
		b   strings.Builder
		run []string // consecutive non-emoji words
	)
	flush := func() {
		if run != nil {
			b.WriteString(textWithPlaceholders(strings.Join(run, " ")))
			run = nil
		}
	}
	for i, w := range words {
		if url := emojis[w]; url != "" {
			flush()
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(emojiImg(url))
			continue
		}
		if run == nil && i > 0 {
			b.WriteString(" ")
		}
		run = append(run, w)
	}
	flush()
	return template.HTML(sanitizer().Sanitize(b.String())) //nolint:gosec // sanitized above
}
