package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

// BackMsg asks the root to return to the feed.
type BackMsg struct{}

// LoadedMsg carries fetched notifications.
type LoadedMsg struct {
	Items []domain.Item
	Err   error
}

// Model lists the member's notifications.
type Model struct {
	svc     app.NotificationService
	keys    common.KeyMap
	spinner spinner.Model
	items   []domain.Item
	loading bool
	err     error
	width   int
}

// New creates the notifications view.
func New(svc app.NotificationService) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = common.NewSpinnerStyle()
	return Model{svc: svc, keys: common.DefaultKeyMap(), spinner: s, loading: true, width: 80}
}

// Init fetches the notifications.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick)
}

func (m Model) fetch() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		items, err := svc.Notifications(context.Background())
		return LoadedMsg{Items: items, Err: err}
	}
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LoadedMsg:
		m.loading = false
		m.items = msg.Items
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.fetch(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Notifications):
			return m, func() tea.Msg { return BackMsg{} }
		}
	}
	return m, nil
}

// View renders the notifications list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("Mumlife"))
	b.WriteString(common.FilterStyle.Render("Notifications"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		fmt.Fprintf(&b, "  %s Loading notifications...\n", m.spinner.View())
	case m.err != nil:
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n  Press r to retry.\n")
	case len(m.items) == 0:
		b.WriteString("  You're all caught up.\n")
	default:
		width := max(m.width-4, 20)
		for _, it := range m.items {
			text := common.ClampLines(common.FirstLines(common.SanitizeText(it.Text), 3), width)
			for _, ln := range strings.Split(text, "\n") {
				b.WriteString("  " + common.ContentStyle.Render(ln) + "\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(common.StatusBarStyle.Render("  r: refresh • esc/i: back"))
	return b.String()
}
