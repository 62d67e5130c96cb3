package mumlife

import (
	"context"
	"fmt"

	"github.com/CrestNiraj12/mumlife/domain"
)

// messageService implements app.MessageService.
type messageService struct {
	client *Client
	path   string
}

// NewMessageService creates a MessageService posting to path under the API root.
func NewMessageService(client *Client, path string) *messageService {
	return &messageService{client: client, path: path}
}

// messagePayload is the wire form of a draft. mid and recipient are
// always present, null when unset.
type messagePayload struct {
	ID           *int   `json:"id,omitempty"`
	Body         string `json:"body"`
	Visibility   int    `json:"visibility"`
	MID          *int   `json:"mid"`
	Recipient    *int   `json:"recipient"`
	Tags         string `json:"tags,omitempty"`
	Picture      string `json:"picture,omitempty"`
	Name         string `json:"name,omitempty"`
	EventDate    string `json:"eventdate,omitempty"`
	EventEndDate string `json:"eventenddate,omitempty"`
	Location     string `json:"location,omitempty"`
	Occurrence   *int   `json:"occurrence,omitempty"`
	OccursUntil  string `json:"occurs_until,omitempty"`
}

func newMessagePayload(d domain.PostDraft) messagePayload {
	p := messagePayload{
		ID:         d.EditID,
		Body:       d.Body,
		Visibility: int(d.Visibility),
		MID:        d.ThreadID,
		Recipient:  d.RecipientID,
		Tags:       d.Tags,
		Picture:    d.Picture,
	}
	if ev := d.Event; ev != nil {
		occ := int(ev.Recurrence)
		p.Name = ev.Name
		p.EventDate = ev.Start
		p.EventEndDate = ev.End
		p.Location = ev.Location
		p.Occurrence = &occ
		p.OccursUntil = ev.RecurUntil
	}
	return p
}

// Submit posts a new message, or patches the existing one in edit mode.
func (s *messageService) Submit(ctx context.Context, d domain.PostDraft) error {
	payload := newMessagePayload(d)
	var err error
	if d.IsEdit() {
		_, err = s.client.Patch(ctx, s.path, payload)
	} else {
		_, err = s.client.Post(ctx, s.path, payload)
	}
	if err != nil {
		return fmt.Errorf("submitting %s: %w", d.Kind, err)
	}
	return nil
}
