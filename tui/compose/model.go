package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/infra/editor"
)

const (
	recipientKey = "recipient"
	minBodyLines = 3
	maxBodyLines = 12
)

// DoneMsg is sent when the compose box closes.
type DoneMsg struct {
	Kind      domain.Kind
	Result    app.Result
	Cancelled bool
}

type submitResultMsg struct {
	result app.Result
	err    error
}

// editorFinishedMsg is sent after the external editor exits.
type editorFinishedMsg struct {
	tmpPath string
	err     error
}

type entry struct {
	key       string
	label     string
	required  bool
	multiline bool
	input     textinput.Model
}

// Model is a compose box driven by an app.Form.
type Model struct {
	composer *app.Composer
	editor   *editor.EnvEditor

	entries []entry
	body    textarea.Model
	focus   int
	width   int

	submitting bool
	invalid    domain.ValidationErrors
	err        error
	status     string
}

// New builds the compose box for the composer's form.
func New(composer *app.Composer, ed *editor.EnvEditor) Model {
	form := composer.Form()
	m := Model{composer: composer, editor: ed, width: 72}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = "Say something to your neighbours..."
	ta.SetWidth(m.width)
	m.body = ta

	if form.Kind == domain.KindPrivateMessage && !form.RecipientLocked() {
		ti := textinput.New()
		ti.Placeholder = "member id"
		ti.Width = 12
		m.entries = append(m.entries, entry{key: recipientKey, label: "Friend", required: true, input: ti})
	}
	for _, f := range form.Fields {
		e := entry{key: f.Key, label: f.Label, required: f.Required}
		if f.Key == app.FieldBody {
			e.multiline = true
			m.body.SetValue(f.Value)
		} else {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Width = m.width - len(f.Label) - 4
			ti.SetValue(f.Value)
			e.input = ti
		}
		m.entries = append(m.entries, e)
	}
	m.fitBody()
	m.focusEntry(0)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Submitting reports whether a submission is in flight.
func (m Model) Submitting() bool { return m.submitting }

// Title names the compose box after its form kind.
func (m Model) Title() string {
	switch m.composer.Form().Kind {
	case domain.KindEvent:
		return "New event"
	case domain.KindReply:
		return "Reply"
	case domain.KindPrivateMessage:
		return "Private message"
	default:
		return "New message"
	}
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-4, 20), 100)
		m.body.SetWidth(m.width)
		return m, nil

	case submitResultMsg:
		m.submitting = false
		if msg.err != nil {
			var verrs domain.ValidationErrors
			if errors.As(msg.err, &verrs) {
				m.invalid = verrs
			} else {
				m.err = msg.err
			}
			m.status = ""
			return m, nil
		}
		kind := m.composer.Form().Kind
		m.composer.Form().Close()
		return m, done(DoneMsg{Kind: kind, Result: msg.result})

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("editor: %w", msg.err)
			return m, nil
		}
		content, err := m.editor.ReadContent(msg.tmpPath)
		if err != nil {
			m.err = err
			return m, nil
		}
		if content != "" {
			m.body.SetValue(content)
			m.fitBody()
		}
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.submitting {
				return m, nil
			}
			m.composer.Form().Close()
			return m, done(DoneMsg{Kind: m.composer.Form().Kind, Cancelled: true})
		case "tab":
			m.commitRecipient()
			m.focusEntry((m.focus + 1) % len(m.entries))
			return m, nil
		case "shift+tab":
			m.commitRecipient()
			m.focusEntry((m.focus - 1 + len(m.entries)) % len(m.entries))
			return m, nil
		case "ctrl+s":
			return m.submit()
		case "ctrl+e":
			return m.launchEditor()
		}
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	if m.submitting || len(m.entries) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	e := &m.entries[m.focus]
	if e.multiline {
		m.body, cmd = m.body.Update(msg)
		m.fitBody()
	} else {
		e.input, cmd = e.input.Update(msg)
	}
	return m, cmd
}

// submit copies the inputs into the form, validates and sends the draft.
// The submit control stays disabled until the request completes.
func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.commitRecipient()
	m.syncForm()

	c := m.composer
	draft := c.BuildDraft()
	m.err = nil
	m.invalid = c.Validate(draft)
	if len(m.invalid) > 0 {
		return m, nil
	}

	m.submitting = true
	m.status = "Posting..."
	return m, func() tea.Msg {
		res, err := c.Submit(context.Background(), draft)
		return submitResultMsg{result: res, err: err}
	}
}

func (m Model) launchEditor() (Model, tea.Cmd) {
	if m.editor == nil || m.submitting {
		return m, nil
	}
	cmd, tmpPath, err := m.editor.Cmd(m.Title(), m.body.Value())
	if err != nil {
		m.err = fmt.Errorf("preparing editor: %w", err)
		return m, nil
	}
	m.status = "Editing in $EDITOR..."
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{tmpPath: tmpPath, err: err}
	})
}

func (m *Model) syncForm() {
	form := m.composer.Form()
	for _, e := range m.entries {
		switch {
		case e.key == recipientKey:
		case e.multiline:
			form.Set(e.key, m.body.Value())
		default:
			form.Set(e.key, e.input.Value())
		}
	}
}

// commitRecipient locks the private message recipient once a valid
// member id has been typed.
func (m *Model) commitRecipient() {
	for i, e := range m.entries {
		if e.key != recipientKey {
			continue
		}
		id, err := app.ParseID(e.input.Value())
		if err != nil {
			m.err = err
			return
		}
		if id == nil {
			return
		}
		if m.composer.Form().SelectRecipient(*id, fmt.Sprintf("member %d", *id)) {
			m.entries[i].input.Blur()
		}
		return
	}
}

func (m *Model) focusEntry(i int) {
	if len(m.entries) == 0 {
		return
	}
	for j := range m.entries {
		m.entries[j].input.Blur()
	}
	m.body.Blur()

	if m.entries[i].key == recipientKey && m.composer.Form().RecipientLocked() && len(m.entries) > 1 {
		i = (i + 1) % len(m.entries)
	}
	m.focus = i
	if m.entries[i].multiline {
		m.body.Focus()
	} else {
		m.entries[i].input.Focus()
	}
}

// fitBody grows the body with its content.
func (m *Model) fitBody() {
	m.body.SetHeight(min(max(m.body.LineCount(), minBodyLines), maxBodyLines))
}

// done wraps a DoneMsg into a tea.Cmd for immediate delivery.
func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
