package app

import "context"

// FriendshipService creates or updates friendships between members.
type FriendshipService interface {
	// SetFriendship records a from→to relation with the given API status
	// (0 pending/confirm, 2 blocked).
	SetFriendship(ctx context.Context, from, to, status int) error
}

// FieldService persists single fields of the member's own records.
type FieldService interface {
	// PatchField updates one field of an API entity (e.g. "members/12").
	PatchField(ctx context.Context, entity, field, value string) error
}

// ProfileService loads the member's own records.
type ProfileService interface {
	// Fields returns the scalar fields of an API entity as strings.
	Fields(ctx context.Context, entity string) (map[string]string, error)
}
