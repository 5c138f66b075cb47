package scrape

import (
	"strings"
	"time"

	"github.com/onnwee/ytchat-relay/chat"
)

// BuildMessage flattens message parts in document order: text verbatim, images
// as placeholder tokens, other elements as their text content. The result is
// trimmed.
func BuildMessage(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		switch p.Kind {
		case PartImage:
			b.WriteString(chat.Placeholder(p.Src))
		default:
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func author(el Element) string {
	if name, ok := el.AuthorName(); ok {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return chat.DefaultAuthor
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return chat.StringPtr(s)
}

// NormalizeChat extracts an ordinary chat item. ok is false when the message
// body is empty; such items are never forwarded.
func NormalizeChat(el Element, now time.Time) (ev chat.Event, ok bool) {
	ev = chat.Event{
		Author:      author(el),
		AuthorImage: optional(el.AuthorPhoto()),
		IsMember:    el.HasBadge(BadgeMember),
		IsModerator: el.HasBadge(BadgeModerator),
		Timestamp:   chat.FormatTimestamp(now),
	}
	if ev.IsMember {
		ev.MemberBadgeImage = optional(el.BadgeImage(BadgeMember))
	}
	if parts, found := el.MessageParts(); found {
		ev.Message = BuildMessage(parts)
	}
	return ev, ev.Message != ""
}

// NormalizeMembership extracts a membership item. It always yields an event;
// the message defaults to chat.MembershipJoinMessage.
func NormalizeMembership(el Element, now time.Time) chat.Event {
	ev := chat.Event{
		Author:           author(el),
		AuthorImage:      optional(el.AuthorPhoto()),
		IsMember:         true,
		IsModerator:      el.HasBadge(BadgeModerator),
		MemberBadgeImage: optional(el.BadgeImage(BadgeMember)),
		Timestamp:        chat.FormatTimestamp(now),
		IsMembershipJoin: true,
		Message:          chat.MembershipJoinMessage,
	}
	if text, found := el.MembershipText(); found {
		if text = strings.TrimSpace(text); text != "" {
			ev.Message = text
		}
	}
	return ev
}
