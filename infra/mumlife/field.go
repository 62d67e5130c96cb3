package mumlife

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// fieldService implements app.FieldService and app.ProfileService.
type fieldService struct {
	client *Client
}

// NewFieldService creates a FieldService backed by the API.
func NewFieldService(client *Client) *fieldService {
	return &fieldService{client: client}
}

// PatchField saves one field of entity, e.g. "members/12".
func (s *fieldService) PatchField(ctx context.Context, entity, field, value string) error {
	_, err := s.client.Patch(ctx, entityPath(entity), map[string]string{field: value})
	return err
}

// Fields loads entity and returns its scalar fields as strings.
// Nested objects and lists are kept as raw JSON.
func (s *fieldService) Fields(ctx context.Context, entity string) (map[string]string, error) {
	data, err := s.client.Get(ctx, entityPath(entity))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", entity, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", entity, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fieldString(v)
	}
	return out, nil
}

func entityPath(entity string) string {
	return strings.Trim(entity, "/") + "/"
}

func fieldString(v json.RawMessage) string {
	if isNull(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSpace(string(v))
}
