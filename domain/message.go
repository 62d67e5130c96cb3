package domain

import (
	"sort"
	"strings"
)

// Item is one rendered feed entry. The markup is owned by the server;
// the optional ids are read from its data attributes.
type Item struct {
	HTML string
	Text string // Terminal rendering of HTML

	ThreadID *int        // Message to reply to (data-mid)
	MemberID *int        // Author or member shown (data-recipient)
	Friend   *FriendLink // Embedded add-to-friends control
}

// FeedPage is one page of a cursor-paginated feed.
// An empty NextCursor means the feed is exhausted.
type FeedPage struct {
	Items      []Item
	NextCursor string
}

// Kind is the type of post a draft represents.
type Kind int

const (
	KindMessage Kind = iota
	KindReply
	KindPrivateMessage
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindPrivateMessage:
		return "private-message"
	case KindEvent:
		return "event"
	default:
		return "message"
	}
}

// Visibility controls the audience of a post. Values match the API.
type Visibility int

const (
	VisibilityPrivate Visibility = 0
	VisibilityFriends Visibility = 1
	VisibilityLocal   Visibility = 2
	VisibilityGlobal  Visibility = 3
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityFriends:
		return "friends"
	case VisibilityGlobal:
		return "global"
	default:
		return "local"
	}
}

// ParseVisibility accepts a name ("friends") or a wire value ("1").
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private", "0":
		return VisibilityPrivate, true
	case "friends", "1":
		return VisibilityFriends, true
	case "local", "2":
		return VisibilityLocal, true
	case "global", "3":
		return VisibilityGlobal, true
	}
	return VisibilityLocal, false
}

// Recurrence is how often an event repeats.
type Recurrence int

const (
	RecurrenceNone   Recurrence = 0
	RecurrenceWeekly Recurrence = 1
)

// ParseRecurrence accepts "once", "weekly" or the wire values.
func ParseRecurrence(s string) Recurrence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "1":
		return RecurrenceWeekly
	default:
		return RecurrenceNone
	}
}

// Date layouts used by the message endpoint.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// EventFields holds the event-only part of a draft.
// Start and End are combined "YYYY-MM-DD HH:MM" values.
type EventFields struct {
	Name       string     `validate:"required"`
	Start      string     `validate:"required,datetime=2006-01-02 15:04"`
	End        string     `validate:"omitempty,datetime=2006-01-02 15:04"`
	Location   string     `validate:"required"`
	Recurrence Recurrence `validate:"oneof=0 1"`
	RecurUntil string     `validate:"omitempty,datetime=2006-01-02"`
}

// PostDraft is an unsaved post built from live form state.
type PostDraft struct {
	Kind        Kind
	Body        string
	Visibility  Visibility
	RecipientID *int
	ThreadID    *int
	EditID      *int // Set when editing an existing post
	Tags        string
	Picture     string
	Event       *EventFields
}

// IsEdit reports whether submitting the draft updates an existing post.
func (d PostDraft) IsEdit() bool { return d.EditID != nil }

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
