package scrape

// fakeElement is a plain struct implementation of Element for tests.
type fakeElement struct {
	id          string
	author      *string
	photo       string
	badges      map[BadgeKind]string // kind -> badge image ("" when none)
	parts       []Part
	hasMessage  bool
	memberText  *string
	panicOnRead bool
}

func str(s string) *string { return &s }

func (f *fakeElement) ID() string { return f.id }

func (f *fakeElement) AuthorName() (string, bool) {
	if f.panicOnRead {
		panic("detached node")
	}
	if f.author == nil {
		return "", false
	}
	return *f.author, true
}

func (f *fakeElement) AuthorPhoto() (string, bool) { return f.photo, f.photo != "" }

func (f *fakeElement) HasBadge(kind BadgeKind) bool {
	_, ok := f.badges[kind]
	return ok
}

func (f *fakeElement) BadgeImage(kind BadgeKind) (string, bool) {
	img, ok := f.badges[kind]
	return img, ok && img != ""
}

func (f *fakeElement) MessageParts() ([]Part, bool) { return f.parts, f.hasMessage }

func (f *fakeElement) MembershipText() (string, bool) {
	if f.memberText == nil {
		return "", false
	}
	return *f.memberText, true
}

type fakeDocument struct {
	chats       []Element
	memberships []Element
}

func (d *fakeDocument) ChatItems() []Element       { return d.chats }
func (d *fakeDocument) MembershipItems() []Element { return d.memberships }

func textMessage(id, author, text string) *fakeElement {
	return &fakeElement{
		id:         id,
		author:     str(author),
		parts:      []Part{{Kind: PartText, Text: text}},
		hasMessage: true,
	}
}

// recordingSender collects sent frames; open controls the return value.
type recordingSender struct {
	open bool
	sent [][]byte
}

func (r *recordingSender) Send(data []byte) bool {
	if !r.open {
		return false
	}
	r.sent = append(r.sent, data)
	return true
}
