package chat

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.FixedZone("WIB", 7*3600))
	got := FormatTimestamp(ts)
	if got != "2024-03-09T07:05:06.789Z" {
		t.Fatalf("FormatTimestamp() = %q", got)
	}
	ev := Event{Timestamp: got}
	if !ev.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", ev.Time(), ts)
	}
}

func TestEncodeNullsAndMembershipFlag(t *testing.T) {
	b, err := Encode(Event{Author: "a", Message: "m", Timestamp: "2024-01-01T00:00:00.000Z"})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"authorImage":null`, `"memberBadgeImage":null`, `"isMember":false`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "isMembershipJoin") {
		t.Errorf("isMembershipJoin should be omitted when false: %s", s)
	}

	b, _ = Encode(Event{Author: "a", Message: MembershipJoinMessage, IsMember: true, IsMembershipJoin: true})
	if !strings.Contains(string(b), `"isMembershipJoin":true`) {
		t.Errorf("membership flag missing: %s", b)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"author":"x","message":"hi","isMember":true,"authorImage":"http://a/b.png","timestamp":"2024-01-01T00:00:00.000Z"}`, false},
		{"membership", `{"author":"x","message":"Joined the membership","isMembershipJoin":true}`, false},
		{"notJSON", `hello`, true},
		{"array", `[1,2]`, true},
		{"missingMessage", `{"author":"x"}`, true},
		{"wrongType", `{"author":1,"message":"m"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("Decode() error = %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if ev.Author != "x" {
				t.Errorf("Author = %q", ev.Author)
			}
		})
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("StringPtr(\"\") should be nil")
	}
	if p := StringPtr("u"); p == nil || *p != "u" {
		t.Errorf("StringPtr(\"u\") = %v", p)
	}
}
