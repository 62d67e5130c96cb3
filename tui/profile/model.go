// Package profile edits the member's own record one field at a time.
// Every field saves itself when the user leaves it.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

// DoneMsg is sent after pending edits were flushed on exit.
type DoneMsg struct {
	Err error
}

type fieldsLoadedMsg struct {
	values map[string]string
	err    error
}

type fieldSavedMsg struct {
	index   int
	changed bool
	err     error
}

type field struct {
	auto   *app.AutoField
	input  textinput.Model
	status string
	err    error
}

// Config wires a profile model.
type Config struct {
	Fields  app.FieldService
	Profile app.ProfileService
	Entity  string
	Names   []string
	Logger  *zap.Logger
}

// Model holds the state of the profile view.
type Model struct {
	cfg     Config
	items   []field
	focus   int
	loading bool
	err     error
	spinner spinner.Model
}

// New creates the profile view. Nothing is fetched until Init.
func New(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = common.NewSpinnerStyle()
	return Model{cfg: cfg, spinner: s, loading: cfg.Entity != "" && len(cfg.Names) > 0}
}

// Init loads the stored field values.
func (m Model) Init() tea.Cmd {
	if m.cfg.Entity == "" || len(m.cfg.Names) == 0 {
		return nil
	}
	p, entity := m.cfg.Profile, m.cfg.Entity
	return tea.Batch(func() tea.Msg {
		values, err := p.Fields(context.Background(), entity)
		return fieldsLoadedMsg{values: values, err: err}
	}, m.spinner.Tick)
}

// Loading reports whether the stored values are still being fetched.
func (m Model) Loading() bool { return m.loading }

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fieldsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = m.items[:0]
		for _, name := range m.cfg.Names {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Width = 48
			ti.SetValue(msg.values[name])
			m.items = append(m.items, field{
				auto:  app.NewAutoField(m.cfg.Fields, m.cfg.Entity, name, msg.values[name], app.WithLogger(m.cfg.Logger)),
				input: ti,
			})
		}
		m.focusField(0)
		return m, textinput.Blink

	case fieldSavedMsg:
		if msg.index < 0 || msg.index >= len(m.items) {
			return m, nil
		}
		f := &m.items[msg.index]
		f.err = msg.err
		f.status = ""
		if msg.err == nil && msg.changed {
			f.status = "Saved"
		}
		return m, nil

	case tea.KeyMsg:
		if len(m.items) == 0 {
			if msg.String() == "esc" {
				return m, func() tea.Msg { return DoneMsg{} }
			}
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, m.flush()
		case "tab", "enter", "down":
			cmd := m.commit(m.focus)
			m.focusField((m.focus + 1) % len(m.items))
			return m, cmd
		case "shift+tab", "up":
			cmd := m.commit(m.focus)
			m.focusField((m.focus - 1 + len(m.items)) % len(m.items))
			return m, cmd
		}
		f := &m.items[m.focus]
		if f.auto.Saving() {
			return m, nil
		}
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// commit saves field i when its value changed since the last save.
func (m Model) commit(i int) tea.Cmd {
	f := m.items[i]
	value := f.input.Value()
	if value == f.auto.Saved() {
		return nil
	}
	auto := f.auto
	return func() tea.Msg {
		changed, err := auto.Commit(context.Background(), value)
		return fieldSavedMsg{index: i, changed: changed, err: err}
	}
}

// flush saves every pending non-empty edit and then reports DoneMsg.
func (m Model) flush() tea.Cmd {
	type pending struct {
		auto  *app.AutoField
		value string
	}
	var todo []pending
	for _, f := range m.items {
		todo = append(todo, pending{auto: f.auto, value: f.input.Value()})
	}
	return func() tea.Msg {
		var errs []error
		for _, p := range todo {
			if _, err := p.auto.Flush(context.Background(), p.value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.auto.Name, err))
			}
		}
		return DoneMsg{Err: errors.Join(errs...)}
	}
}

func (m *Model) focusField(i int) {
	for j := range m.items {
		m.items[j].input.Blur()
	}
	if i >= 0 && i < len(m.items) {
		m.focus = i
		m.items[i].input.Focus()
	}
}

// View renders the profile form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("Mumlife"))
	b.WriteString(common.FilterStyle.Render("Profile"))
	b.WriteString("\n\n")

	switch {
	case m.cfg.Entity == "" || len(m.cfg.Names) == 0:
		b.WriteString("  Set MUMLIFE_PROFILE_ENTITY and MUMLIFE_PROFILE_FIELDS to edit your profile.\n")
	case m.loading:
		fmt.Fprintf(&b, "  %s Loading profile...\n", m.spinner.View())
	case m.err != nil:
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n")
	default:
		for i, f := range m.items {
			style := common.LabelStyle
			if i == m.focus {
				style = common.FocusedLabelStyle
			}
			label := style.Render(f.auto.Name)
			switch {
			case f.auto.Saving():
				label += common.MetadataStyle.Render(" saving...")
			case f.status != "":
				label += " " + common.SuccessStyle.Render(f.status)
			}
			b.WriteString("  " + label + "\n")
			b.WriteString("  " + f.input.View() + "\n")
			if f.err != nil {
				for _, ln := range strings.Split(f.err.Error(), "\n") {
					b.WriteString("  " + common.ErrorStyle.Render(ln) + "\n")
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(common.StatusBarStyle.Render("  tab/enter: next field (saves) • esc: back"))
	return b.String()
}
