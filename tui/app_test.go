package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/compose"
	"github.com/CrestNiraj12/mumlife/tui/feed"
)

type pageFetcher struct {
	page    domain.FeedPage
	cursors []string
}

func (f *pageFetcher) FetchPage(_ context.Context, cursor string) (domain.FeedPage, error) {
	f.cursors = append(f.cursors, cursor)
	return f.page, nil
}

type nopMessages struct{}

func (nopMessages) Submit(context.Context, domain.PostDraft) error { return nil }

type recordingPrefs struct {
	filter  domain.Filter
	events  bool
	compact *bool
}

func (p *recordingPrefs) SaveFeed(f domain.Filter, events bool, _ int) error {
	p.filter, p.events = f, events
	return nil
}

func (p *recordingPrefs) SaveLayout(compact bool) error {
	p.compact = &compact
	return nil
}

// collect runs cmd and every batched command, returning the produced messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func pageLoaded(t *testing.T, cmd tea.Cmd) feed.PageLoadedMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if pl, ok := msg.(feed.PageLoadedMsg); ok {
			return pl
		}
	}
	t.Fatal("expected a page fetch")
	return feed.PageLoadedMsg{}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(f *pageFetcher, prefs Prefs) App {
	return NewApp(Deps{
		Feed:          f,
		Messages:      nopMessages{},
		Prefs:         prefs,
		SiteURL:       "https://mumlife.test/",
		Query:         app.FeedQuery{Terms: "@local"},
		AutoloadLines: 2,
	})
}

func loadedApp(t *testing.T, f *pageFetcher, prefs Prefs) App {
	t.Helper()
	a := newTestApp(f, prefs)
	m, _ := a.Update(pageLoaded(t, a.Init()))
	return m.(App)
}

func TestReplyOpensComposeForSelectedThread(t *testing.T) {
	thread := 42
	f := &pageFetcher{page: domain.FeedPage{Items: []domain.Item{{Text: "hello", ThreadID: &thread}}}}
	a := loadedApp(t, f, nil)

	m, cmd := a.Update(keyPress("c"))
	a = m.(App)
	if a.active != composeView {
		t.Fatalf("expected compose view, got %d", a.active)
	}
	if cmd == nil {
		t.Fatal("expected compose init command")
	}
	if !strings.Contains(a.View(), "Reply") {
		t.Fatalf("expected reply box, got:\n%s", a.View())
	}
}

func TestReplyWithoutThreadStaysOnFeed(t *testing.T) {
	f := &pageFetcher{page: domain.FeedPage{Items: []domain.Item{{Text: "no thread"}}}}
	a := loadedApp(t, f, nil)

	m, _ := a.Update(keyPress("c"))
	a = m.(App)
	if a.active != feedView {
		t.Fatal("expected to stay on the feed")
	}
	if !strings.Contains(a.View(), "Nothing to reply to here.") {
		t.Fatalf("expected status, got:\n%s", a.View())
	}
}

func TestPostedEventNavigatesToEvents(t *testing.T) {
	f := &pageFetcher{page: domain.FeedPage{Items: []domain.Item{{Text: "a"}}}}
	a := loadedApp(t, f, nil)

	m, _ := a.Update(keyPress("n"))
	m, cmd := m.Update(compose.DoneMsg{Kind: domain.KindEvent, Result: app.Result{Navigate: app.NavEvents}})
	a = m.(App)

	if a.active != feedView {
		t.Fatal("expected feed view after posting")
	}
	if !a.feed.Query().EventsOnly {
		t.Fatal("expected events listing")
	}
	pageLoaded(t, cmd)
	if got := f.cursors[len(f.cursors)-1]; got != "1/messages/1/@local?events&range=9999" {
		t.Fatalf("unexpected cursor %q", got)
	}
}

func TestPrefsPersisted(t *testing.T) {
	prefs := &recordingPrefs{}
	a := loadedApp(t, &pageFetcher{}, prefs)

	m, cmd := a.Update(keyPress("f"))
	for _, msg := range collect(cmd) {
		if pc, ok := msg.(feed.PrefsChangedMsg); ok {
			m, _ = m.Update(pc)
		}
	}
	if prefs.filter != domain.FilterFriends {
		t.Fatalf("expected friends filter saved, got %q", prefs.filter)
	}

	_, cmd = m.Update(keyPress("L"))
	for _, msg := range collect(cmd) {
		m, _ = m.Update(msg)
	}
	if prefs.compact == nil || !*prefs.compact {
		t.Fatal("expected compact layout saved")
	}
}

func TestFeedResultsRoutedWhileComposing(t *testing.T) {
	f := &pageFetcher{page: domain.FeedPage{Items: []domain.Item{{Text: "late"}}}}
	a := newTestApp(f, nil)
	initCmd := a.Init()

	m, _ := a.Update(keyPress("p"))
	m, _ = m.Update(pageLoaded(t, initCmd))
	a = m.(App)

	if a.active != composeView {
		t.Fatal("expected compose to stay open")
	}
	if got := len(a.feed.Items()); got != 1 {
		t.Fatalf("expected feed to receive its page, got %d items", got)
	}
}

func TestUnauthorizedFeedShowsLoginHint(t *testing.T) {
	a := newTestApp(&pageFetcher{}, nil)
	pl := pageLoaded(t, a.Init())
	pl.Page = domain.FeedPage{}
	pl.Err = &domain.APIError{Method: "GET", Path: "1/messages/1/", Status: 403}

	m, _ := a.Update(pl)
	if !strings.Contains(m.View(), "mumlife login") {
		t.Fatalf("expected login hint, got:\n%s", m.View())
	}
}
