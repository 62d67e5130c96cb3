package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

// Form field keys understood by BuildDraft.
const (
	FieldBody        = "body"
	FieldVisibility  = "visibility"
	FieldTags        = "tags"
	FieldPicture     = "picture"
	FieldName        = "name"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldEndDate     = "enddate"
	FieldEndTime     = "endtime"
	FieldLocation    = "location"
	FieldOccurrence  = "occurrence"
	FieldOccursUntil = "occurs_until"
)

// FormField is one input of a compose form. Label and Required are
// metadata used for validation messages.
type FormField struct {
	Key      string
	Label    string
	Value    string
	Required bool
}

// Form is the live state of a compose box.
type Form struct {
	Kind     domain.Kind
	Fields   []FormField
	ThreadID *int
	EditID   *int

	mu              sync.Mutex
	recipient       *int
	recipientLabel  string
	recipientLocked bool
	recipientPicked bool // chosen in the picker rather than preset
}

// NewForm builds a form of the given kind.
func NewForm(kind domain.Kind, fields ...FormField) *Form {
	return &Form{Kind: kind, Fields: fields}
}

// MessageForm is the "write a post" box.
func MessageForm() *Form {
	return NewForm(domain.KindMessage,
		FormField{Key: FieldBody, Label: "Message", Required: true},
		FormField{Key: FieldVisibility, Label: "Visibility", Value: domain.VisibilityLocal.String()},
		FormField{Key: FieldTags, Label: "Tags"},
	)
}

// ReplyForm is the reply box under a message thread.
func ReplyForm(threadID int) *Form {
	f := NewForm(domain.KindReply,
		FormField{Key: FieldBody, Label: "Reply", Required: true},
	)
	f.ThreadID = &threadID
	return f
}

// PrivateMessageForm is the private message box. A nil recipient leaves
// the friend picker open.
func PrivateMessageForm(recipient *int) *Form {
	f := NewForm(domain.KindPrivateMessage,
		FormField{Key: FieldBody, Label: "Message", Required: true},
	)
	if recipient != nil {
		id := *recipient
		f.recipient = &id
		f.recipientLocked = true
	}
	return f
}

// EventForm is the "post an event" box.
func EventForm() *Form {
	return NewForm(domain.KindEvent,
		FormField{Key: FieldName, Label: "Event name", Required: true},
		FormField{Key: FieldDate, Label: "Date", Required: true},
		FormField{Key: FieldTime, Label: "Start time"},
		FormField{Key: FieldEndTime, Label: "End time"},
		FormField{Key: FieldLocation, Label: "Location", Required: true},
		FormField{Key: FieldOccurrence, Label: "Occurrence", Value: "once"},
		FormField{Key: FieldOccursUntil, Label: "Repeat until"},
		FormField{Key: FieldBody, Label: "Details", Required: true},
	)
}

// Value returns the value of the field with key.
func (f *Form) Value(key string) (string, bool) {
	for _, fld := range f.Fields {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return "", false
}

// Set updates the value of an existing field.
func (f *Form) Set(key, value string) {
	for i := range f.Fields {
		if f.Fields[i].Key == key {
			f.Fields[i].Value = value
			return
		}
	}
}

// SelectRecipient picks the private message recipient. The first pick
// locks the picker until Close.
func (f *Form) SelectRecipient(id int, label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recipientLocked {
		return false
	}
	f.recipient = &id
	f.recipientLabel = label
	f.recipientLocked = true
	f.recipientPicked = true
	return true
}

// Recipient returns the selected recipient, if any.
func (f *Form) Recipient() (*int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recipient == nil {
		return nil, ""
	}
	id := *f.recipient
	return &id, f.recipientLabel
}

// RecipientLocked reports whether the picker is disabled.
func (f *Form) RecipientLocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recipientLocked
}

// Close clears the body and re-opens the recipient picker.
func (f *Form) Close() {
	f.Set(FieldBody, "")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Kind == domain.KindPrivateMessage && f.recipientPicked {
		f.recipient = nil
		f.recipientLabel = ""
		f.recipientLocked = false
		f.recipientPicked = false
	}
}

// Navigation is where the client goes after a successful post.
type Navigation int

const (
	NavReload Navigation = iota
	NavLocalFeed
	NavEvents
)

// Result is the outcome of a successful submission.
type Result struct {
	Navigate Navigation
	URL      string
}

// Composer builds, validates and submits drafts from a Form.
type Composer struct {
	svc        MessageService
	form       *Form
	validate   *validator.Validate
	log        *zap.Logger
	siteURL    string
	submitting atomic.Bool
}

// NewComposer wires a composer for form.
func NewComposer(svc MessageService, form *Form, opts ...Option) *Composer {
	o := buildOptions(opts)
	return &Composer{
		svc:      svc,
		form:     form,
		validate: validator.New(),
		log:      o.log,
		siteURL:  o.siteURL,
	}
}

// Form returns the form backing the composer.
func (c *Composer) Form() *Form { return c.form }

// Submitting reports whether a submission is running; the submit control
// is disabled meanwhile.
func (c *Composer) Submitting() bool { return c.submitting.Load() }

// BuildDraft snapshots the form into a draft.
func (c *Composer) BuildDraft() domain.PostDraft {
	f := c.form
	body, _ := f.Value(FieldBody)
	d := domain.PostDraft{
		Kind:       f.Kind,
		Body:       strings.TrimSpace(body),
		Visibility: domain.VisibilityLocal,
		ThreadID:   f.ThreadID,
		EditID:     f.EditID,
	}
	if v, ok := f.Value(FieldTags); ok {
		d.Tags = strings.TrimSpace(v)
	}
	if v, ok := f.Value(FieldPicture); ok {
		d.Picture = strings.TrimSpace(v)
	}

	switch f.Kind {
	case domain.KindPrivateMessage:
		d.Visibility = domain.VisibilityPrivate
		d.RecipientID, _ = f.Recipient()
	default:
		if v, ok := f.Value(FieldVisibility); ok {
			if vis, ok := domain.ParseVisibility(v); ok {
				d.Visibility = vis
			}
		}
	}

	if _, isEvent := f.Value(FieldName); isEvent {
		d.Kind = domain.KindEvent
		d.Event = buildEventFields(f)
		d.Visibility = domain.VisibilityGlobal
	}
	return d
}

func buildEventFields(f *Form) *domain.EventFields {
	val := func(key string) string {
		v, _ := f.Value(key)
		return strings.TrimSpace(v)
	}
	ev := &domain.EventFields{
		Name:       val(FieldName),
		Location:   val(FieldLocation),
		Recurrence: domain.ParseRecurrence(val(FieldOccurrence)),
		RecurUntil: val(FieldOccursUntil),
	}
	startDate := val(FieldDate)
	if startDate != "" {
		ev.Start = combineDateTime(startDate, val(FieldTime))
	}
	endDate, endTime := val(FieldEndDate), val(FieldEndTime)
	switch {
	case endTime != "":
		if endDate == "" {
			endDate = startDate
		}
		if endDate != "" {
			ev.End = combineDateTime(endDate, endTime)
		}
	case endDate != "":
		ev.End = combineDateTime(endDate, "")
	}
	return ev
}

func combineDateTime(date, clock string) string {
	if clock == "" {
		clock = "00:00"
	}
	return date + " " + clock
}

// eventFieldKeys maps EventFields struct fields to the form keys that feed them.
var eventFieldKeys = map[string]string{
	"Name":       FieldName,
	"Start":      FieldDate,
	"End":        FieldEndTime,
	"Location":   FieldLocation,
	"Recurrence": FieldOccurrence,
	"RecurUntil": FieldOccursUntil,
}

// Validate returns every problem that blocks submitting d.
func (c *Composer) Validate(d domain.PostDraft) domain.ValidationErrors {
	var errs domain.ValidationErrors
	reported := make(map[string]bool)

	for _, fld := range c.form.Fields {
		if !fld.Required {
			continue
		}
		if err := c.validate.Var(strings.TrimSpace(fld.Value), "required"); err != nil {
			errs = append(errs, domain.ValidationError{
				Field:   fld.Key,
				Message: fmt.Sprintf("%s is required", fld.Label),
			})
			reported[fld.Key] = true
		}
	}

	if d.Kind == domain.KindPrivateMessage && d.RecipientID == nil {
		errs = append(errs, domain.ValidationError{Field: "recipient", Message: "Please select a friend"})
	}

	if d.Kind == domain.KindEvent && d.Event != nil {
		var fieldErrs validator.ValidationErrors
		if err := c.validate.Struct(d.Event); errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				key := eventFieldKeys[fe.Field()]
				if reported[key] {
					continue
				}
				reported[key] = true
				errs = append(errs, domain.ValidationError{Field: key, Message: c.fieldMessage(key, fe)})
			}
		}
	}
	return errs
}

func (c *Composer) fieldMessage(key string, fe validator.FieldError) string {
	label := fe.Field()
	for _, fld := range c.form.Fields {
		if fld.Key == key {
			label = fld.Label
			break
		}
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "datetime":
		return fmt.Sprintf("%s must look like %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// Submit validates and sends d. Validation failures are returned as
// domain.ValidationErrors without any request. The form is left intact
// on failure.
func (c *Composer) Submit(ctx context.Context, d domain.PostDraft) (Result, error) {
	if errs := c.Validate(d); len(errs) > 0 {
		return Result{}, errs
	}
	if !c.submitting.CompareAndSwap(false, true) {
		return Result{}, domain.ErrSubmitInProgress
	}
	defer c.submitting.Store(false)

	if err := c.svc.Submit(ctx, d); err != nil {
		if detail := domain.ErrorDetail(err); detail != "" {
			c.log.Warn("post failed", zap.String("kind", d.Kind.String()), zap.String("detail", detail))
		} else {
			c.log.Warn("post failed", zap.String("kind", d.Kind.String()), zap.Error(err))
		}
		return Result{}, fmt.Errorf("posting %s: %w", d.Kind, err)
	}

	c.log.Info("post sent", zap.String("kind", d.Kind.String()), zap.Bool("edit", d.IsEdit()))
	switch d.Kind {
	case domain.KindEvent:
		return Result{Navigate: NavEvents, URL: c.siteURL + "events/"}, nil
	case domain.KindMessage:
		return Result{Navigate: NavLocalFeed, URL: c.siteURL}, nil
	default:
		return Result{Navigate: NavReload}, nil
	}
}

// ParseID parses a numeric member or message id.
func ParseID(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return &n, nil
}
