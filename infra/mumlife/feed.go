package mumlife

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CrestNiraj12/mumlife/domain"
)

// feedService implements app.FeedFetcher over the messages listing.
type feedService struct {
	client *Client
}

// NewFeedService creates a FeedFetcher backed by the Mumlife API.
func NewFeedService(client *Client) *feedService {
	return &feedService{client: client}
}

// feedResponse is the listing payload. html_content is canonical; older
// servers send content instead, as one string or a list of fragments.
type feedResponse struct {
	Next        string          `json:"next"`
	Total       int             `json:"total"`
	HTMLContent json.RawMessage `json:"html_content"`
	Content     json.RawMessage `json:"content"`
}

// FetchPage loads the page at cursor, which is relative to the site root.
func (s *feedService) FetchPage(ctx context.Context, cursor string) (domain.FeedPage, error) {
	data, err := s.client.GetSite(ctx, cursor)
	if err != nil {
		return domain.FeedPage{}, err
	}
	var resp feedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.FeedPage{}, fmt.Errorf("parsing feed page: %w", err)
	}
	raw := resp.HTMLContent
	if isNull(raw) {
		raw = resp.Content
	}
	items, err := decodeItems(raw)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("parsing feed page: %w", err)
	}
	return domain.FeedPage{Items: items, NextCursor: resp.Next}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

var errNoContent = errors.New("response has no content")

// decodeItems accepts either an HTML string, split into top-level
// elements, or an array of HTML strings, one item each.
func decodeItems(raw json.RawMessage) ([]domain.Item, error) {
	if isNull(raw) {
		return nil, errNoContent
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return splitItems(one)
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("content must be a string or a list of strings: %w", err)
	}
	items := make([]domain.Item, 0, len(many))
	for _, frag := range many {
		it, err := itemFromHTML(frag)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
