package mumlife

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CrestNiraj12/mumlife/domain"
)

// notificationService implements app.NotificationService.
type notificationService struct {
	client *Client
}

// NewNotificationService creates a NotificationService backed by the API.
func NewNotificationService(client *Client) *notificationService {
	return &notificationService{client: client}
}

type notificationResponse struct {
	Total       int             `json:"total"`
	HTMLContent json.RawMessage `json:"html_content"`
}

// Notifications returns the member's notifications, newest first as
// rendered by the server.
func (s *notificationService) Notifications(ctx context.Context) ([]domain.Item, error) {
	data, err := s.client.Get(ctx, "notifications/")
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	var resp notificationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing notifications: %w", err)
	}
	if isNull(resp.HTMLContent) {
		return nil, nil
	}
	items, err := decodeItems(resp.HTMLContent)
	if err != nil {
		return nil, fmt.Errorf("parsing notifications: %w", err)
	}
	return items, nil
}
