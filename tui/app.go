package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/infra/editor"
	"github.com/CrestNiraj12/mumlife/tui/common"
	"github.com/CrestNiraj12/mumlife/tui/compose"
	"github.com/CrestNiraj12/mumlife/tui/feed"
	"github.com/CrestNiraj12/mumlife/tui/notifications"
	"github.com/CrestNiraj12/mumlife/tui/profile"
)

// Prefs persists UI choices between runs.
type Prefs interface {
	SaveFeed(filter domain.Filter, events bool, rng int) error
	SaveLayout(compact bool) error
}

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Feed          app.FeedFetcher
	Messages      app.MessageService
	Friends       app.FriendshipService
	Fields        app.FieldService
	Profile       app.ProfileService
	Notifications app.NotificationService
	Editor        *editor.EnvEditor
	Prefs         Prefs

	SiteURL       string
	Query         app.FeedQuery
	Compact       bool
	AutoloadLines int
	Timeout       time.Duration
	ProfileEntity string
	ProfileFields []string
	Logger        *zap.Logger
}

type activeView int

const (
	feedView activeView = iota
	composeView
	notificationsView
	profileView
)

// App is the root Bubble Tea model. It routes between sub-views.
type App struct {
	deps          Deps
	log           *zap.Logger
	active        activeView
	feed          feed.Model
	compose       compose.Model
	notifications notifications.Model
	profile       profile.Model
	keys          common.KeyMap
	size          tea.WindowSizeMsg
	status        string // Transient status message (e.g. "Posted!")
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return App{
		deps:   deps,
		log:    log,
		active: feedView,
		feed: feed.New(feed.Config{
			Fetcher:       deps.Feed,
			Friends:       deps.Friends,
			Query:         deps.Query,
			Compact:       deps.Compact,
			AutoloadLines: deps.AutoloadLines,
			Options:       []app.Option{app.WithTimeout(deps.Timeout)},
			Logger:        log,
		}),
		keys: common.DefaultKeyMap(),
	}
}

// Init loads the first feed page.
func (a App) Init() tea.Cmd {
	return a.feed.Init()
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.size = msg
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		cmds = append(cmds, cmd)
		switch a.active {
		case composeView:
			a.compose, cmd = a.compose.Update(msg)
			cmds = append(cmds, cmd)
		case notificationsView:
			a.notifications, cmd = a.notifications.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		if a.active == feedView {
			if m, cmd, ok := a.handleFeedKey(msg); ok {
				return m, cmd
			}
		}

	// Feed results keep arriving while another view is open.
	case feed.PageLoadedMsg, feed.FriendResultMsg:
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		cmds = append(cmds, cmd)
		switch a.active {
		case notificationsView:
			a.notifications, cmd = a.notifications.Update(msg)
			cmds = append(cmds, cmd)
		case profileView:
			a.profile, cmd = a.profile.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case feed.PrefsChangedMsg:
		if a.deps.Prefs != nil {
			if err := a.deps.Prefs.SaveFeed(msg.Filter, msg.Events, msg.Range); err != nil {
				a.log.Warn("saving feed preferences failed", zap.Error(err))
			}
		}
		return a, nil

	case feed.LayoutChangedMsg:
		if a.deps.Prefs != nil {
			if err := a.deps.Prefs.SaveLayout(msg.Compact); err != nil {
				a.log.Warn("saving layout failed", zap.Error(err))
			}
		}
		return a, nil

	case compose.DoneMsg:
		a.active = feedView
		if msg.Cancelled {
			a.status = "Cancelled."
			return a, nil
		}
		a.status = "Posted!"
		return a, a.navigate(msg.Result.Navigate)

	case notifications.BackMsg:
		a.active = feedView
		return a, nil

	case profile.DoneMsg:
		a.active = feedView
		if msg.Err != nil {
			a.status = "Some profile changes were not saved: " + msg.Err.Error()
		} else {
			a.status = ""
		}
		return a, nil
	}

	// Delegate to the active sub-model.
	var cmd tea.Cmd
	switch a.active {
	case feedView:
		a.feed, cmd = a.feed.Update(msg)
	case composeView:
		a.compose, cmd = a.compose.Update(msg)
	case notificationsView:
		a.notifications, cmd = a.notifications.Update(msg)
	case profileView:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

// handleFeedKey handles keys that leave the feed view.
func (a App) handleFeedKey(msg tea.KeyMsg) (App, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit, true

	case key.Matches(msg, a.keys.Compose):
		return a.openCompose(app.MessageForm())

	case key.Matches(msg, a.keys.ComposeEvent):
		return a.openCompose(app.EventForm())

	case key.Matches(msg, a.keys.Reply):
		it, ok := a.feed.Selected()
		if !ok || it.ThreadID == nil {
			a.status = "Nothing to reply to here."
			return a, nil, true
		}
		return a.openCompose(app.ReplyForm(*it.ThreadID))

	case key.Matches(msg, a.keys.Private):
		var recipient *int
		if it, ok := a.feed.Selected(); ok {
			recipient = it.MemberID
		}
		return a.openCompose(app.PrivateMessageForm(recipient))

	case key.Matches(msg, a.keys.Notifications):
		if a.deps.Notifications == nil {
			return a, nil, true
		}
		a.active = notificationsView
		a.status = ""
		a.notifications = notifications.New(a.deps.Notifications)
		a.notifications, _ = a.notifications.Update(a.size)
		return a, a.notifications.Init(), true

	case key.Matches(msg, a.keys.Profile):
		a.active = profileView
		a.status = ""
		a.profile = profile.New(profile.Config{
			Fields:  a.deps.Fields,
			Profile: a.deps.Profile,
			Entity:  a.deps.ProfileEntity,
			Names:   a.deps.ProfileFields,
			Logger:  a.log,
		})
		return a, a.profile.Init(), true
	}
	return a, nil, false
}

func (a App) openCompose(form *app.Form) (App, tea.Cmd, bool) {
	c := app.NewComposer(a.deps.Messages, form, app.WithSiteURL(a.deps.SiteURL), app.WithLogger(a.log))
	a.active = composeView
	a.status = ""
	a.compose = compose.New(c, a.deps.Editor)
	if a.size.Width > 0 {
		a.compose, _ = a.compose.Update(a.size)
	}
	return a, a.compose.Init(), true
}

// navigate reloads the feed after a successful post.
func (a *App) navigate(nav app.Navigation) tea.Cmd {
	q := a.feed.Query()
	switch nav {
	case app.NavEvents:
		q.EventsOnly = true
	case app.NavLocalFeed:
		q = q.WithFilter(domain.FilterLocal)
		q.EventsOnly = false
	}
	var cmd tea.Cmd
	a.feed, cmd = a.feed.Reload(q)
	return cmd
}

// View renders the active sub-model.
func (a App) View() string {
	var s string
	switch a.active {
	case feedView:
		s = a.feed.View()
	case composeView:
		s = a.compose.View()
	case notificationsView:
		s = a.notifications.View()
	case profileView:
		s = a.profile.View()
	}

	status := a.status
	if a.active == feedView && errors.Is(a.feed.Err(), domain.ErrUnauthorized) {
		status = "Session expired. Run `mumlife login <username>` and try again."
	}
	if status != "" {
		s += "\n" + common.StatusBarStyle.Render(status)
	}
	return s
}
