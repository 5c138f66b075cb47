package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/onnwee/ytchat-relay/chat"
)

// Marker is the author-name styling class.
type Marker string

const (
	MarkerNone      Marker = ""
	MarkerModerator Marker = "moderator"
	MarkerMember    Marker = "member"
)

// MarkerFor picks the author marker; moderator takes precedence over member.
func MarkerFor(ev chat.Event) Marker {
	switch {
	case ev.IsModerator:
		return MarkerModerator
	case ev.IsMember:
		return MarkerMember
	default:
		return MarkerNone
	}
}

// EmptyState is shown while no events have arrived.
const EmptyState = "Waiting for messages..."

type listData struct {
	Events []chat.Event
	Emojis map[string]string
}

// PageOptions configures the full viewer document.
type PageOptions struct {
	Title     string
	StreamURL string // SSE endpoint delivering re-rendered list fragments
}

var funcs = template.FuncMap{
	"message": Message,
	"marker":  MarkerFor,
	"deref":   deref,
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var tmpl = template.Must(template.New("page").Funcs(funcs).Parse(listTemplate + pageTemplate))

const listTemplate = `{{define "list"}}{{if not .Events}}<div class="empty-state"><p>` + EmptyState + `</p></div>{{else}}{{range .Events}}{{$ev := .}}
<div class="chat-item{{if .IsMembershipJoin}} membership{{end}}">
	<div class="chat-avatar">{{with .AuthorImage}}<img src="{{deref .}}" alt="{{$ev.Author}}">{{end}}</div>
	<div class="chat-content">
		<div class="chat-header">
			<span class="chat-author{{with marker .}} {{.}}{{end}}">{{.Author}}{{if .IsModerator}} <div class="moderator-badge">` + moderatorIcon + `</div>{{end}}{{if and .IsMember .MemberBadgeImage}} <img class="member-badge" src="{{deref .MemberBadgeImage}}" alt="Member Badge">{{end}}</span>
		</div>
		<div class="chat-message">{{message .Message $.Emojis}}</div>
	</div>
</div>{{end}}{{end}}{{end}}`

const moderatorIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" focusable="false" aria-hidden="true" style="pointer-events: none; display: inherit; width: 100%; height: 100%;"><path d="M9.64589146,7.05569719 C9.83346524,6.562372 9.93617022,6.02722257 9.93617022,5.46808511 C9.93617022,3.00042984 7.93574038,1 5.46808511,1 C4.90894765,1 4.37379823,1.10270499 3.88047304,1.29027875 L6.95744681,4.36725249 L4.36725255,6.95744681 L1.29027875,3.88047305 C1.10270498,4.37379824 1,4.90894766 1,5.46808511 C1,7.93574038 3.00042984,9.93617022 5.46808511,9.93617022 C6.02722256,9.93617022 6.56237198,9.83346524 7.05569716,9.64589147 L12.4098057,15 L15,12.4098057 L9.64589146,7.05569719 Z"></path></svg>`

const pageTemplate = `{{define "document"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: transparent; font-family: Roboto, Arial, sans-serif; color: #fff; }
#chatContainer { height: 100vh; overflow-y: auto; padding: 8px; box-sizing: border-box; }
.chat-item { display: flex; gap: 8px; margin-bottom: 8px; }
.chat-item.membership { background: rgba(15, 157, 88, 0.35); border-radius: 6px; padding: 4px; }
.chat-avatar img { width: 32px; height: 32px; border-radius: 50%; }
.chat-author { font-weight: 600; color: #ccc; }
.chat-author.member { color: #2ba640; }
.chat-author.moderator { color: #5e84f1; }
.moderator-badge { display: inline-block; width: 14px; height: 14px; fill: #5e84f1; }
.member-badge, .chat-emoji { height: 1.4em; vertical-align: middle; }
.empty-state { opacity: 0.6; text-align: center; }
</style>
</head>
<body>
<div id="chatContainer">{{template "list" .List}}</div>
<script>
const chatContainer = document.getElementById('chatContainer');
function scrollToBottom() { chatContainer.scrollTop = chatContainer.scrollHeight; }
const source = new EventSource({{.StreamURL}});
source.onmessage = (event) => {
	chatContainer.innerHTML = JSON.parse(event.data);
	setTimeout(scrollToBottom, 0);
};
scrollToBottom();
</script>
</body>
</html>
{{end}}`

// List writes the chat list fragment: one item per event in order, or the
// empty state.
func List(w io.Writer, events []chat.Event, emojis map[string]string) error {
	if err := tmpl.ExecuteTemplate(w, "list", listData{Events: events, Emojis: emojis}); err != nil {
		return fmt.Errorf("render list: %w", err)
	}
	return nil
}

// ListString is List into a string.
func ListString(events []chat.Event, emojis map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := List(&buf, events, emojis); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Page writes the full viewer document with the list pre-rendered.
func Page(w io.Writer, events []chat.Event, emojis map[string]string, opts PageOptions) error {
	if opts.Title == "" {
		opts.Title = "Live Chat"
	}
	if opts.StreamURL == "" {
		opts.StreamURL = "/stream"
	}
	data := struct {
		PageOptions
		List listData
	}{opts, listData{Events: events, Emojis: emojis}}
	if err := tmpl.ExecuteTemplate(w, "document", data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
