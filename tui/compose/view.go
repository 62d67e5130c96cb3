package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

// View renders the compose form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("Mumlife"))
	b.WriteString(common.FilterStyle.Render(m.Title()))
	b.WriteString("\n\n")

	for i, e := range m.entries {
		label := e.label
		if e.required {
			label += " *"
		}
		style := common.LabelStyle
		if i == m.focus {
			style = common.FocusedLabelStyle
		}
		b.WriteString("  " + style.Render(label) + "\n")

		switch {
		case e.key == recipientKey:
			if id, name := m.composer.Form().Recipient(); id != nil {
				b.WriteString("  " + common.ContentStyle.Render(name) + common.MetadataStyle.Render(" (locked)"))
			} else {
				b.WriteString("  " + e.input.View())
			}
		case e.multiline:
			b.WriteString(m.body.View())
		default:
			b.WriteString("  " + e.input.View())
		}
		b.WriteString("\n\n")
	}

	if len(m.invalid) > 0 {
		b.WriteString(common.ErrorStyle.Render("  Please fix the following:") + "\n")
		for _, v := range m.invalid {
			b.WriteString(common.ErrorStyle.Render("  • "+v.Message) + "\n")
		}
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(common.ErrorStyle.Render("  "+errorText(m.err)) + "\n\n")
	}

	button := common.ButtonStyle.Render("ctrl+s: post")
	if m.submitting {
		button = common.DisabledButtonStyle.Render(m.status)
	}
	b.WriteString("  " + button)
	b.WriteString(common.StatusBarStyle.Render(fmt.Sprintf(
		"\n  tab: next field • ctrl+e: $EDITOR • esc: cancel • %d chars", len([]rune(m.body.Value())),
	)))
	return b.String()
}

// errorText prefers the server's own messages over the wrapped error chain.
func errorText(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if msgs := apiErr.Messages(); len(msgs) > 0 {
			return strings.Join(msgs, "\n  ")
		}
	}
	return err.Error()
}
