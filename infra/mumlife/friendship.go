package mumlife

import (
	"context"

	"github.com/CrestNiraj12/mumlife/domain"
)

// friendshipService implements app.FriendshipService.
type friendshipService struct {
	client *Client
}

// NewFriendshipService creates a FriendshipService backed by the API.
func NewFriendshipService(client *Client) *friendshipService {
	return &friendshipService{client: client}
}

type friendshipPayload struct {
	FromMember int `json:"from_member"`
	ToMember   int `json:"to_member"`
	Status     int `json:"status"`
}

// SetFriendship creates or updates the from→to relation.
func (s *friendshipService) SetFriendship(ctx context.Context, from, to, status int) error {
	if from == to {
		return domain.ErrSameMember
	}
	_, err := s.client.Post(ctx, "friendships/", friendshipPayload{FromMember: from, ToMember: to, Status: status})
	return err
}
