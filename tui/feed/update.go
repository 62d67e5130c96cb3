package feed

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
)

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, m.maybeAutoload()

	case spinner.TickMsg:
		if !m.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PageLoadedMsg:
		return m.handlePageLoaded(msg)

	case FriendResultMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, domain.ErrSameMember) {
				m.notice = "That's you!"
			} else {
				m.err = msg.Err
			}
			return m, nil
		}
		if b, ok := m.buttons[msg.Index]; ok && b.Inert() {
			m.notice = b.State().String()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handlePageLoaded(msg PageLoadedMsg) (Model, tea.Cmd) {
	if !m.pager.Resolve(msg.Ticket, msg.Page, msg.Err) {
		m.log.Debug("dropped stale page", zap.String("cursor", msg.Ticket.Cursor))
		return m, nil
	}
	if msg.Err != nil {
		m.err = msg.Err
		return m, nil
	}
	m.err = nil
	if m.pager.State() == app.PagerExhausted && len(m.pager.Items()) > 0 {
		m.notice = "End of the feed."
	}
	m.ensureCursorVisible()
	return m, m.maybeAutoload()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.pager.Items())
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
		m.ensureCursorVisible()
		return m, m.maybeAutoload()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.offset += max(m.bodyHeight(), 1)
		m.clampOffset()
		m.cursor = m.firstVisibleItem()
		return m, m.maybeAutoload()

	case key.Matches(msg, m.keys.PageUp):
		m.offset -= max(m.bodyHeight(), 1)
		m.clampOffset()
		m.cursor = m.firstVisibleItem()
		return m, nil

	case key.Matches(msg, m.keys.LoadMore):
		if !m.pager.ShowLoadMore() {
			return m, nil
		}
		m.err = nil
		return m, m.loadNext()

	case key.Matches(msg, m.keys.Refresh):
		return m.Reload(m.query)

	case key.Matches(msg, m.keys.Filter):
		next := app.NextFilter(app.ActiveFilter(m.query.Terms))
		var cmd tea.Cmd
		m, cmd = m.Reload(m.query.WithFilter(next))
		m.notice = "Feed: " + next.Label()
		return m, tea.Batch(cmd, m.emitPrefsChanged())

	case key.Matches(msg, m.keys.Events):
		q := m.query
		q.EventsOnly = !q.EventsOnly
		var cmd tea.Cmd
		m, cmd = m.Reload(q)
		if q.EventsOnly {
			m.notice = "Showing events"
		} else {
			m.notice = "Showing messages"
		}
		return m, tea.Batch(cmd, m.emitPrefsChanged())

	case key.Matches(msg, m.keys.Layout):
		m.compact = !m.compact
		m.ensureCursorVisible()
		return m, emitLayoutChanged(m.compact)

	case key.Matches(msg, m.keys.Friend):
		it, ok := m.Selected()
		if !ok || it.Friend == nil || m.friends == nil {
			return m, nil
		}
		b := m.button(m.cursor, it.Friend)
		if b.Inert() {
			return m, nil
		}
		return m, pressFriend(b, m.cursor)

	case key.Matches(msg, m.keys.ToggleHints):
		m.showHints = !m.showHints
		return m, nil
	}
	return m, nil
}

// maybeAutoload fetches the next page once the unseen content below the
// viewport drops under the pager threshold.
func (m Model) maybeAutoload() tea.Cmd {
	if m.height <= 0 || m.err != nil {
		return nil
	}
	if !m.pager.NearBottom(m.remainingLines()) {
		return nil
	}
	return m.loadNext()
}

func (m *Model) ensureCursorVisible() {
	spans := m.layout().spans
	if len(spans) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), len(spans)-1)
	body := m.bodyHeight()
	if body <= 0 {
		return
	}
	sp := spans[m.cursor]
	if sp.start < m.offset {
		m.offset = sp.start
	}
	if sp.end > m.offset+body {
		m.offset = sp.end - body
	}
	m.clampOffset()
}

func (m *Model) clampOffset() {
	total := len(m.layout().lines)
	m.offset = min(m.offset, max(total-m.bodyHeight(), 0))
	m.offset = max(m.offset, 0)
}

func (m Model) firstVisibleItem() int {
	for i, sp := range m.layout().spans {
		if sp.end > m.offset {
			return i
		}
	}
	return m.cursor
}

// remainingLines is the number of rendered lines below the viewport.
func (m Model) remainingLines() int {
	total := len(m.layout().lines)
	return max(total-(m.offset+m.bodyHeight()), 0)
}
