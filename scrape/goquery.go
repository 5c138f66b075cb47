package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selectors rendered by the YouTube live-chat page.
const (
	selChatItem       = "yt-live-chat-text-message-renderer"
	selMembershipItem = "yt-live-chat-membership-item-renderer"
	selAuthorName     = "#author-name"
	selAuthorPhoto    = "#author-photo img"
	selBadges         = "#chat-badges"
	selMessage        = "#message"
	selMembershipText = "#content #message"
)

type htmlDocument struct {
	doc *goquery.Document
}

// ParseHTML parses a live-chat HTML snapshot.
func ParseHTML(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse live chat html: %w", err)
	}
	return &htmlDocument{doc: doc}, nil
}

// NewDocument wraps an already parsed goquery document.
func NewDocument(doc *goquery.Document) Document {
	return &htmlDocument{doc: doc}
}

func (d *htmlDocument) ChatItems() []Element       { return elements(d.doc.Find(selChatItem)) }
func (d *htmlDocument) MembershipItems() []Element { return elements(d.doc.Find(selMembershipItem)) }

func elements(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &htmlElement{sel: s})
	})
	return out
}

type htmlElement struct {
	sel *goquery.Selection
}

func (e *htmlElement) ID() string {
	id, _ := e.sel.Attr("id")
	return id
}

func (e *htmlElement) AuthorName() (string, bool) {
	s := e.sel.Find(selAuthorName).First()
	if s.Length() == 0 {
		return "", false
	}
	return s.Text(), true
}

func (e *htmlElement) AuthorPhoto() (string, bool) {
	return e.sel.Find(selAuthorPhoto).First().Attr("src")
}

func badgeSelector(kind BadgeKind) string {
	return fmt.Sprintf(`yt-live-chat-author-badge-renderer[type="%s"]`, kind)
}

func (e *htmlElement) HasBadge(kind BadgeKind) bool {
	return e.sel.Find(selBadges).Find(badgeSelector(kind)).Length() > 0
}

func (e *htmlElement) BadgeImage(kind BadgeKind) (string, bool) {
	return e.sel.Find(selBadges).Find(badgeSelector(kind) + " #image img").First().Attr("src")
}

func (e *htmlElement) MessageParts() ([]Part, bool) {
	msg := e.sel.Find(selMessage).First()
	if msg.Length() == 0 {
		return nil, false
	}
	var parts []Part
	msg.Contents().Each(func(_ int, c *goquery.Selection) {
		n := c.Get(0)
		switch n.Type {
		case html.TextNode:
			parts = append(parts, Part{Kind: PartText, Text: n.Data})
		case html.ElementNode:
			if strings.EqualFold(n.Data, "img") {
				src, _ := c.Attr("src")
				parts = append(parts, Part{Kind: PartImage, Src: src})
				return
			}
			parts = append(parts, Part{Kind: PartOther, Text: c.Text()})
		}
	})
	return parts, true
}

func (e *htmlElement) MembershipText() (string, bool) {
	s := e.sel.Find(selMembershipText).First()
	if s.Length() == 0 {
		return "", false
	}
	return s.Text(), true
}
