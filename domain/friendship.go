package domain

// FriendAction is what a friendship button does when pressed.
type FriendAction int

const (
	FriendRequest FriendAction = iota
	FriendConfirm
	FriendBlock
)

// ParseFriendAction maps a button rel ("confirm", "block") to an action.
func ParseFriendAction(s string) FriendAction {
	switch s {
	case "confirm":
		return FriendConfirm
	case "block":
		return FriendBlock
	default:
		return FriendRequest
	}
}

// Status is the friendship status sent to the API.
// Requests and confirmations are both sent as pending; the server
// approves the pair when the reverse request already exists.
func (a FriendAction) Status() int {
	if a == FriendBlock {
		return 2
	}
	return 0
}

// FriendLink is an add-to-friends control found in rendered markup.
type FriendLink struct {
	From   int
	To     int
	Action FriendAction
}

// FriendState is the visible state of a friendship button.
type FriendState int

const (
	FriendStateNone FriendState = iota
	FriendStateRequested
	FriendStateFriend
	FriendStateBlocked
)

func (s FriendState) String() string {
	switch s {
	case FriendStateRequested:
		return "Requested"
	case FriendStateFriend:
		return "Friend"
	case FriendStateBlocked:
		return "Blocked"
	default:
		return "Add to friends"
	}
}

// Filter narrows the feed audience. It is written into the search terms.
type Filter string

const (
	FilterLocal   Filter = "@local"
	FilterFriends Filter = "@friends"
	FilterGlobal  Filter = "@global"
	FilterPrivate Filter = "@private"
)

// Label is the heading shown for the active filter.
func (f Filter) Label() string {
	switch f {
	case FilterGlobal:
		return "Global posts"
	case FilterFriends:
		return "Friends' posts"
	case FilterPrivate:
		return "Private messages"
	default:
		return "Local posts"
	}
}
