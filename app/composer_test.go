package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/mumlife/domain"
)

// MockMessageService is a mock.Mock backed MessageService.
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Submit(ctx context.Context, draft domain.PostDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func intPtr(n int) *int { return &n }

func TestBuildDraft_EventDefaultsMissingStartTime(t *testing.T) {
	form := EventForm()
	form.Set(FieldName, "Coffee morning")
	form.Set(FieldDate, "2024-05-01")
	form.Set(FieldLocation, "Town hall")
	form.Set(FieldBody, "Bring cake")

	d := NewComposer(&MockMessageService{}, form).BuildDraft()
	require.NotNil(t, d.Event)
	assert.Equal(t, "2024-05-01 00:00", d.Event.Start)
	assert.Empty(t, d.Event.End)
	assert.Equal(t, domain.KindEvent, d.Kind)
}

func TestBuildDraft_EventEndTimeUsesStartDate(t *testing.T) {
	form := EventForm()
	form.Set(FieldName, "Swim")
	form.Set(FieldDate, "2024-06-02")
	form.Set(FieldTime, "10:30")
	form.Set(FieldEndTime, "12:00")
	form.Set(FieldLocation, "Pool")
	form.Set(FieldOccurrence, "weekly")
	form.Set(FieldOccursUntil, "2024-08-01")

	d := NewComposer(&MockMessageService{}, form).BuildDraft()
	assert.Equal(t, "2024-06-02 10:30", d.Event.Start)
	assert.Equal(t, "2024-06-02 12:00", d.Event.End)
	assert.Equal(t, domain.RecurrenceWeekly, d.Event.Recurrence)
	assert.Equal(t, "2024-08-01", d.Event.RecurUntil)
}

func TestBuildDraft_EventVisibilityForcedGlobal(t *testing.T) {
	form := EventForm()
	form.Fields = append(form.Fields, FormField{Key: FieldVisibility, Value: "private"})
	form.Set(FieldName, "Picnic")

	d := NewComposer(&MockMessageService{}, form).BuildDraft()
	assert.Equal(t, domain.VisibilityGlobal, d.Visibility)
}

func TestBuildDraft_VisibilityResolution(t *testing.T) {
	msg := MessageForm()
	msg.Set(FieldBody, "  hello  ")
	msg.Set(FieldVisibility, "friends")
	d := NewComposer(&MockMessageService{}, msg).BuildDraft()
	assert.Equal(t, "hello", d.Body)
	assert.Equal(t, domain.VisibilityFriends, d.Visibility)
	assert.Nil(t, d.Event)

	reply := ReplyForm(42)
	d = NewComposer(&MockMessageService{}, reply).BuildDraft()
	assert.Equal(t, domain.VisibilityLocal, d.Visibility)
	require.NotNil(t, d.ThreadID)
	assert.Equal(t, 42, *d.ThreadID)

	pm := PrivateMessageForm(intPtr(7))
	d = NewComposer(&MockMessageService{}, pm).BuildDraft()
	assert.Equal(t, domain.VisibilityPrivate, d.Visibility)
	require.NotNil(t, d.RecipientID)
	assert.Equal(t, 7, *d.RecipientID)
}

func TestBuildDraft_RecurrenceIgnoredOutsideEvents(t *testing.T) {
	form := MessageForm()
	form.Fields = append(form.Fields,
		FormField{Key: FieldOccurrence, Value: "weekly"},
		FormField{Key: FieldOccursUntil, Value: "2024-01-01"},
	)
	form.Set(FieldBody, "hi")
	d := NewComposer(&MockMessageService{}, form).BuildDraft()
	assert.Nil(t, d.Event)
}

func TestValidate_PrivateMessageWithoutRecipient_BlocksSubmit(t *testing.T) {
	svc := &MockMessageService{}
	form := PrivateMessageForm(nil)
	form.Set(FieldBody, "hey")
	c := NewComposer(svc, form)

	d := c.BuildDraft()
	errs := c.Validate(d)
	require.NotEmpty(t, errs)
	assert.Equal(t, "Please select a friend", errs[0].Message)

	_, err := c.Submit(context.Background(), d)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestValidate_CollectsEveryRequiredField(t *testing.T) {
	c := NewComposer(&MockMessageService{}, EventForm())
	errs := c.Validate(c.BuildDraft())

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{
		"Event name is required",
		"Date is required",
		"Location is required",
		"Details is required",
	}, msgs)
}

func TestValidate_UsesFormLabels(t *testing.T) {
	form := NewForm(domain.KindMessage, FormField{Key: FieldBody, Label: "Your thoughts", Required: true})
	c := NewComposer(&MockMessageService{}, form)
	errs := c.Validate(c.BuildDraft())
	require.Len(t, errs, 1)
	assert.Equal(t, "Your thoughts is required", errs[0].Message)
}

func TestValidate_RejectsMalformedEventDate(t *testing.T) {
	form := EventForm()
	form.Set(FieldName, "Party")
	form.Set(FieldDate, "01/05/2024")
	form.Set(FieldLocation, "Park")
	form.Set(FieldBody, "fun")
	c := NewComposer(&MockMessageService{}, form)

	errs := c.Validate(c.BuildDraft())
	require.Len(t, errs, 1)
	assert.Equal(t, FieldDate, errs[0].Field)
}

func TestSubmit_NavigatesByKind(t *testing.T) {
	tests := []struct {
		name string
		form func() *Form
		nav  Navigation
		url  string
	}{
		{name: "message", form: func() *Form {
			f := MessageForm()
			f.Set(FieldBody, "hi")
			return f
		}, nav: NavLocalFeed, url: "https://mumlife.test/"},
		{name: "event", form: func() *Form {
			f := EventForm()
			f.Set(FieldName, "n")
			f.Set(FieldDate, "2024-05-01")
			f.Set(FieldLocation, "l")
			f.Set(FieldBody, "b")
			return f
		}, nav: NavEvents, url: "https://mumlife.test/events/"},
		{name: "reply", form: func() *Form {
			f := ReplyForm(3)
			f.Set(FieldBody, "ok")
			return f
		}, nav: NavReload},
		{name: "private", form: func() *Form {
			f := PrivateMessageForm(intPtr(9))
			f.Set(FieldBody, "psst")
			return f
		}, nav: NavReload},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockMessageService{}
			svc.On("Submit", mock.Anything, mock.AnythingOfType("domain.PostDraft")).Return(nil).Once()
			c := NewComposer(svc, tc.form(), WithSiteURL("https://mumlife.test/"))

			res, err := c.Submit(context.Background(), c.BuildDraft())
			require.NoError(t, err)
			assert.Equal(t, tc.nav, res.Navigate)
			assert.Equal(t, tc.url, res.URL)
			svc.AssertExpectations(t)
		})
	}
}

func TestSubmit_FailureKeepsFormAndReturnsDetail(t *testing.T) {
	svc := &MockMessageService{}
	apiErr := &domain.APIError{Method: "POST", Path: "message/post", Status: 400, Detail: "Message required."}
	svc.On("Submit", mock.Anything, mock.Anything).Return(apiErr)

	form := MessageForm()
	form.Set(FieldBody, "draft text")
	c := NewComposer(svc, form)

	_, err := c.Submit(context.Background(), c.BuildDraft())
	require.Error(t, err)
	assert.Equal(t, "Message required.", domain.ErrorDetail(err))
	body, _ := form.Value(FieldBody)
	assert.Equal(t, "draft text", body)
	assert.False(t, c.Submitting())
}

type blockingMessages struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingMessages) Submit(context.Context, domain.PostDraft) error {
	close(b.entered)
	<-b.release
	return nil
}

func TestSubmit_DisabledWhileInFlight(t *testing.T) {
	svc := &blockingMessages{entered: make(chan struct{}), release: make(chan struct{})}
	form := MessageForm()
	form.Set(FieldBody, "once")
	c := NewComposer(svc, form)
	d := c.BuildDraft()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), d)
		done <- err
	}()
	<-svc.entered
	assert.True(t, c.Submitting())

	_, err := c.Submit(context.Background(), d)
	assert.True(t, errors.Is(err, domain.ErrSubmitInProgress))

	close(svc.release)
	require.NoError(t, <-done)
	assert.False(t, c.Submitting())
}

func TestForm_RecipientLockedUntilClose(t *testing.T) {
	form := PrivateMessageForm(nil)
	assert.True(t, form.SelectRecipient(5, "Alice"))
	assert.False(t, form.SelectRecipient(6, "Bob"))

	id, label := form.Recipient()
	require.NotNil(t, id)
	assert.Equal(t, 5, *id)
	assert.Equal(t, "Alice", label)

	form.Set(FieldBody, "typed")
	form.Close()
	assert.False(t, form.RecipientLocked())
	body, _ := form.Value(FieldBody)
	assert.Empty(t, body)
	assert.True(t, form.SelectRecipient(6, "Bob"))
}

func TestForm_UnlabelledRecipientReopensOnClose(t *testing.T) {
	form := PrivateMessageForm(nil)
	require.True(t, form.SelectRecipient(9, ""))
	assert.True(t, form.RecipientLocked())

	form.Close()
	assert.False(t, form.RecipientLocked())
	id, _ := form.Recipient()
	assert.Nil(t, id)
	assert.True(t, form.SelectRecipient(4, ""))
}

func TestForm_PresetRecipientStaysLocked(t *testing.T) {
	member := 7
	form := PrivateMessageForm(&member)
	form.Close()
	assert.True(t, form.RecipientLocked())
	id, _ := form.Recipient()
	require.NotNil(t, id)
	assert.Equal(t, 7, *id)
}
