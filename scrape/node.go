package scrape

// BadgeKind selects an author badge by its type attribute.
type BadgeKind string

const (
	BadgeMember    BadgeKind = "member"
	BadgeModerator BadgeKind = "moderator"
)

// PartKind classifies a child node of a message container.
type PartKind int

const (
	PartText  PartKind = iota // plain text node
	PartImage                 // inline <img>, usually an emoji
	PartOther                 // any other element, contributes its text content
)

// Part is one child of a message container, in document order.
type Part struct {
	Kind PartKind
	Text string // text content for PartText and PartOther
	Src  string // image URL for PartImage
}

// Element is the read-only view of one chat or membership item.
// Optional lookups report ok=false when the sub-element is absent.
type Element interface {
	ID() string
	AuthorName() (string, bool)
	AuthorPhoto() (string, bool)
	HasBadge(kind BadgeKind) bool
	BadgeImage(kind BadgeKind) (string, bool)
	// MessageParts returns the children of the #message container.
	MessageParts() ([]Part, bool)
	// MembershipText returns the text of the #content #message container.
	MembershipText() (string, bool)
}

// Document is a snapshot of the live-chat page.
type Document interface {
	ChatItems() []Element
	MembershipItems() []Element
}

// Tail returns the last n elements of items.
func Tail(items []Element, n int) []Element {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
