package app

import (
	"context"

	"github.com/CrestNiraj12/mumlife/domain"
)

// FeedFetcher loads one page of a cursor-paginated feed.
type FeedFetcher interface {
	FetchPage(ctx context.Context, cursor string) (domain.FeedPage, error)
}

// NotificationService fetches the member's notifications.
type NotificationService interface {
	Notifications(ctx context.Context) ([]domain.Item, error)
}

// MessageService publishes and edits posts.
type MessageService interface {
	// Submit posts a new draft, or patches an existing post when
	// draft.EditID is set.
	Submit(ctx context.Context, draft domain.PostDraft) error
}
