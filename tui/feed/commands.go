package feed

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
)

// loadNext claims the pager for one fetch. It returns nil when the pager
// is already loading or exhausted.
func (m Model) loadNext() tea.Cmd {
	t, ok := m.pager.Begin()
	if !ok {
		return nil
	}
	return tea.Batch(fetchPage(m.pager, t), m.spinner.Tick)
}

func fetchPage(pager *app.FeedPager, t app.Ticket) tea.Cmd {
	return func() tea.Msg {
		page, err := pager.Fetch(context.Background(), t)
		return PageLoadedMsg{Ticket: t, Page: page, Err: err}
	}
}

func pressFriend(b *app.FriendButton, index int) tea.Cmd {
	return func() tea.Msg {
		return FriendResultMsg{Index: index, Err: b.Press(context.Background())}
	}
}

func (m Model) emitPrefsChanged() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		return PrefsChangedMsg{Filter: app.ActiveFilter(q.Terms), Events: q.EventsOnly, Range: q.Range}
	}
}

func emitLayoutChanged(compact bool) tea.Cmd {
	return func() tea.Msg {
		return LayoutChangedMsg{Compact: compact}
	}
}

// button returns the friend button of item index, creating it on first use.
func (m Model) button(index int, link *domain.FriendLink) *app.FriendButton {
	if b, ok := m.buttons[index]; ok {
		return b
	}
	b := app.NewFriendButton(m.friends, link.From, link.To, link.Action, app.WithLogger(m.log))
	m.buttons[index] = b
	return b
}
