package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

type itemSpan struct {
	start int
	end   int
}

type feedLayout struct {
	lines []string
	spans []itemSpan
}

// View renders the feed as a string.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	items := m.pager.Items()
	switch {
	case len(items) == 0 && m.Loading():
		fmt.Fprintf(&b, "  %s Loading...\n", m.spinner.View())
	case len(items) == 0 && m.err != nil:
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n  Press m to retry.\n")
	case len(items) == 0:
		b.WriteString("  Nothing here yet.\n")
	default:
		lines := m.layout().lines
		end := len(lines)
		if body := m.bodyHeight(); body > 0 {
			end = min(m.offset+body, end)
		}
		start := min(m.offset, end)
		b.WriteString(strings.Join(lines[start:end], "\n"))
		b.WriteString("\n")
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header() string {
	title := common.AppTitleStyle.Render("Mumlife")
	label := app.ActiveFilter(m.query.Terms).Label()
	if m.query.EventsOnly {
		label += " · events"
	}
	header := title + common.FilterStyle.Render(label)
	if terms := strings.TrimSpace(stripFlags(m.query.Terms)); terms != "" {
		header += common.TaglineStyle.Render(terms)
	}
	return header
}

func (m Model) footer() string {
	var status string
	hasItems := len(m.pager.Items()) > 0
	switch {
	case hasItems && m.Loading():
		status = fmt.Sprintf("%s Loading more...", m.spinner.View())
	case hasItems && m.err != nil:
		status = common.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "  m: retry"
	case m.pager.ShowLoadMore() && hasItems:
		status = common.ButtonStyle.Render("m: load more")
	case m.notice != "":
		status = common.SuccessStyle.Render(m.notice)
	}
	return status + "\n" + m.hintsView()
}

func (m Model) hintsView() string {
	items := []string{"j/k: move", "f: filter", "v: events", "p: post", "q: quit", "?: all keys"}
	if m.showHints {
		items = []string{
			"j/k: move",
			"pgup/pgdn: page",
			"m: load more",
			"r: refresh",
			"f: local/friends/global",
			"v: events",
			"L: layout",
			"p: post",
			"n: event",
			"c: reply",
			"w: private",
			"a: friend",
			"i: notifications",
			"u: profile",
			"q: quit",
		}
	}
	width := max(m.width-2, 16)
	return common.StatusBarStyle.Width(width).Render("  " + strings.Join(items, " • "))
}

// bodyHeight is the number of item lines that fit between header and
// footer. Zero means unbounded.
func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	used := lipgloss.Height(m.header()) + lipgloss.Height(m.footer()) + 1
	return max(m.height-used, 1)
}

func (m Model) layout() feedLayout {
	var l feedLayout
	for i, it := range m.pager.Items() {
		block := m.renderItem(i, it)
		start := len(l.lines)
		l.lines = append(l.lines, strings.Split(block, "\n")...)
		l.spans = append(l.spans, itemSpan{start: start, end: len(l.lines)})
	}
	return l
}

func (m Model) renderItem(i int, it domain.Item) string {
	text := common.SanitizeText(it.Text)
	selected := i == m.cursor
	width := max(m.width-6, 20)

	var meta string
	if it.Friend != nil {
		meta = common.MetadataStyle.Render(m.friendLabel(i, it.Friend))
	}

	if m.compact {
		prefix := "  "
		if selected {
			prefix = lipgloss.NewStyle().Foreground(common.Accent).Render("▸ ")
		}
		body := common.ClampLines(common.FirstLines(text, 2), width)
		lines := strings.Split(body, "\n")
		for j, ln := range lines {
			if j == 0 {
				lines[j] = prefix + common.ContentStyle.Render(ln)
			} else {
				lines[j] = "  " + common.ContentStyle.Render(ln)
			}
		}
		if meta != "" {
			lines = append(lines, "  "+meta)
		}
		return strings.Join(lines, "\n")
	}

	content := common.ContentStyle.Render(text)
	if meta != "" {
		content += "\n" + meta
	}
	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Width(width).Render(content)
}

func (m Model) friendLabel(i int, link *domain.FriendLink) string {
	if b, ok := m.buttons[i]; ok && b.Inert() {
		return "✓ " + b.State().String()
	}
	switch link.Action {
	case domain.FriendConfirm:
		return "[a] Confirm friend"
	case domain.FriendBlock:
		return "[a] Block"
	default:
		return "[a] " + domain.FriendStateNone.String()
	}
}

func stripFlags(terms string) string {
	kept := make([]string, 0, 4)
	for _, t := range strings.Fields(terms) {
		if !strings.HasPrefix(t, "@") {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}
