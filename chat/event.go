package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultAuthor is used when the author name element is missing or blank.
	DefaultAuthor = "Unknown"
	// MembershipJoinMessage is the message of a membership item without text.
	MembershipJoinMessage = "Joined the membership"

	// TimestampLayout matches JavaScript's Date.prototype.toISOString.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// ErrMalformed is returned by Decode for frames that are not chat events.
var ErrMalformed = errors.New("malformed chat event")

// Event is one normalized chat or membership item.
type Event struct {
	Author           string  `json:"author"`
	AuthorImage      *string `json:"authorImage"`
	Message          string  `json:"message"`
	IsMember         bool    `json:"isMember"`
	IsModerator      bool    `json:"isModerator"`
	MemberBadgeImage *string `json:"memberBadgeImage"`
	Timestamp        string  `json:"timestamp"`
	IsMembershipJoin bool    `json:"isMembershipJoin,omitempty"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the event timestamp. Zero time is returned for an empty or
// unparsable value.
func (e Event) Time() time.Time {
	if e.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Encode serializes ev as a single wire message.
func Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode chat event: %w", err)
	}
	return b, nil
}

// Decode parses one wire message. Anything that is not a JSON object carrying
// an author and a message is reported as ErrMalformed.
func Decode(raw []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, key := range []string{"author", "message"} {
		if _, ok := fields[key]; !ok {
			return Event{}, fmt.Errorf("%w: missing %q", ErrMalformed, key)
		}
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return ev, nil
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
