package compose

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
)

type recordingMessages struct {
	mu     sync.Mutex
	drafts []domain.PostDraft
	err    error
}

func (r *recordingMessages) Submit(_ context.Context, d domain.PostDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, d)
	return r.err
}

func (r *recordingMessages) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

var ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}

func setField(t *testing.T, m *Model, key, value string) {
	t.Helper()
	for i, e := range m.entries {
		if e.key != key {
			continue
		}
		if e.multiline {
			m.body.SetValue(value)
			m.fitBody()
		} else {
			m.entries[i].input.SetValue(value)
		}
		return
	}
	t.Fatalf("no field %q", key)
}

func TestSubmit_EmptyBodyShowsValidation(t *testing.T) {
	svc := &recordingMessages{}
	m := New(app.NewComposer(svc, app.MessageForm()), nil)

	m, cmd := m.Update(ctrlS)
	if cmd != nil {
		t.Fatal("expected no request for an invalid form")
	}
	if !strings.Contains(m.View(), "Message is required") {
		t.Fatalf("expected validation message, got:\n%s", m.View())
	}
	if svc.count() != 0 {
		t.Fatal("expected service not to be called")
	}
}

func TestSubmit_SuccessClosesForm(t *testing.T) {
	svc := &recordingMessages{}
	form := app.MessageForm()
	m := New(app.NewComposer(svc, form, app.WithSiteURL("https://mumlife.test/")), nil)
	setField(t, &m, app.FieldBody, "hello street")

	m, cmd := m.Update(ctrlS)
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if !m.Submitting() {
		t.Fatal("expected submit control disabled while posting")
	}
	if _, again := m.Update(ctrlS); again != nil {
		t.Fatal("expected second submit to be ignored")
	}

	m, cmd = m.Update(cmd())
	msg, ok := cmd().(DoneMsg)
	if !ok {
		t.Fatalf("expected DoneMsg, got %T", msg)
	}
	if msg.Result.Navigate != app.NavLocalFeed || msg.Kind != domain.KindMessage {
		t.Fatalf("unexpected done message: %#v", msg)
	}
	if body, _ := form.Value(app.FieldBody); body != "" {
		t.Fatalf("expected body cleared after posting, got %q", body)
	}
	if svc.count() != 1 || svc.drafts[0].Body != "hello street" {
		t.Fatalf("unexpected drafts: %#v", svc.drafts)
	}
}

func TestSubmit_ServerErrorKeepsDraft(t *testing.T) {
	svc := &recordingMessages{err: &domain.APIError{Method: "POST", Path: "message/post", Status: 400, Detail: "Message required."}}
	m := New(app.NewComposer(svc, app.MessageForm()), nil)
	setField(t, &m, app.FieldBody, "keep me")

	m, cmd := m.Update(ctrlS)
	m, _ = m.Update(cmd())

	if m.Submitting() {
		t.Fatal("expected submit control re-enabled")
	}
	if !strings.Contains(m.View(), "Message required.") {
		t.Fatalf("expected server detail, got:\n%s", m.View())
	}
	if m.body.Value() != "keep me" {
		t.Fatalf("expected draft kept, got %q", m.body.Value())
	}
}

func TestPrivateMessage_RecipientLocksOnSubmit(t *testing.T) {
	svc := &recordingMessages{}
	form := app.PrivateMessageForm(nil)
	m := New(app.NewComposer(svc, form), nil)
	setField(t, &m, recipientKey, "7")
	setField(t, &m, app.FieldBody, "psst")

	m, cmd := m.Update(ctrlS)
	if cmd == nil {
		t.Fatalf("expected submit command, view:\n%s", m.View())
	}
	if !form.RecipientLocked() {
		t.Fatal("expected recipient picker locked")
	}
	if !strings.Contains(m.View(), "member 7 (locked)") {
		t.Fatalf("expected locked recipient, got:\n%s", m.View())
	}

	cmd()
	d := svc.drafts[0]
	if d.RecipientID == nil || *d.RecipientID != 7 || d.Visibility != domain.VisibilityPrivate {
		t.Fatalf("unexpected draft: %#v", d)
	}
}

func TestPrivateMessage_MissingRecipientBlocksSubmit(t *testing.T) {
	svc := &recordingMessages{}
	m := New(app.NewComposer(svc, app.PrivateMessageForm(nil)), nil)
	setField(t, &m, app.FieldBody, "psst")

	m, cmd := m.Update(ctrlS)
	if cmd != nil {
		t.Fatal("expected no request without a recipient")
	}
	if !strings.Contains(m.View(), "Please select a friend") {
		t.Fatalf("expected recipient error, got:\n%s", m.View())
	}
}

func TestBody_HeightFollowsLines(t *testing.T) {
	m := New(app.NewComposer(&recordingMessages{}, app.MessageForm()), nil)
	if got := m.body.Height(); got != minBodyLines {
		t.Fatalf("expected %d lines for an empty body, got %d", minBodyLines, got)
	}

	setField(t, &m, app.FieldBody, strings.Repeat("line\n", 5)+"last")
	if got := m.body.Height(); got != 6 {
		t.Fatalf("expected 6 lines, got %d", got)
	}

	setField(t, &m, app.FieldBody, strings.Repeat("line\n", 30))
	if got := m.body.Height(); got != maxBodyLines {
		t.Fatalf("expected height capped at %d, got %d", maxBodyLines, got)
	}
}

func TestCancel_ClosesForm(t *testing.T) {
	form := app.MessageForm()
	m := New(app.NewComposer(&recordingMessages{}, form), nil)
	setField(t, &m, app.FieldBody, "draft")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msg, ok := cmd().(DoneMsg)
	if !ok || !msg.Cancelled {
		t.Fatalf("expected cancelled DoneMsg, got %#v", msg)
	}
}
