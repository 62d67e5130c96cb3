package feed

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

// PageLoadedMsg carries the outcome of one pager fetch.
type PageLoadedMsg struct {
	Ticket app.Ticket
	Page   domain.FeedPage
	Err    error
}

// FriendResultMsg is sent after a friend button press completes.
type FriendResultMsg struct {
	Index int
	Err   error
}

// PrefsChangedMsg is emitted when the filter or events toggle changes,
// so the root can persist them.
type PrefsChangedMsg struct {
	Filter domain.Filter
	Events bool
	Range  int
}

// LayoutChangedMsg is emitted when the user switches layout.
type LayoutChangedMsg struct {
	Compact bool
}

// Config wires a feed model.
type Config struct {
	Fetcher       app.FeedFetcher
	Friends       app.FriendshipService
	Query         app.FeedQuery
	Compact       bool
	AutoloadLines int
	Options       []app.Option
	Logger        *zap.Logger
}

// Model holds the state of the feed view.
type Model struct {
	friends app.FriendshipService
	log     *zap.Logger

	query   app.FeedQuery
	pager   *app.FeedPager
	buttons map[int]*app.FriendButton

	keys      common.KeyMap
	spinner   spinner.Model
	width     int
	height    int
	compact   bool
	cursor    int
	offset    int
	err       error
	notice    string
	showHints bool
}

// New creates a feed model positioned at the first page of cfg.Query.
func New(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = common.NewSpinnerStyle()

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts := append([]app.Option{app.WithLogger(log)}, cfg.Options...)
	if cfg.AutoloadLines > 0 {
		opts = append(opts, app.WithThreshold(cfg.AutoloadLines))
	}

	return Model{
		friends: cfg.Friends,
		log:     log,
		query:   cfg.Query,
		pager:   app.NewFeedPager(cfg.Fetcher, cfg.Query.FirstCursor(), opts...),
		buttons: make(map[int]*app.FriendButton),
		keys:    common.DefaultKeyMap(),
		spinner: s,
		compact: cfg.Compact,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadNext(), m.spinner.Tick)
}

// Query returns the listing currently shown.
func (m Model) Query() app.FeedQuery { return m.query }

// Compact reports whether the compact layout is active.
func (m Model) Compact() bool { return m.compact }

// Items returns the loaded items.
func (m Model) Items() []domain.Item { return m.pager.Items() }

// Loading reports whether a page fetch is in flight.
func (m Model) Loading() bool { return m.pager.State() == app.PagerLoading }

// Err returns the last fetch error, if any.
func (m Model) Err() error { return m.err }

// Selected returns the item under the cursor.
func (m Model) Selected() (domain.Item, bool) {
	items := m.pager.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return domain.Item{}, false
	}
	return items[m.cursor], true
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Reload starts q from its first page, dropping loaded items and any
// request still in flight.
func (m Model) Reload(q app.FeedQuery) (Model, tea.Cmd) {
	m.query = q
	m.pager.Reset(q.FirstCursor())
	m.buttons = make(map[int]*app.FriendButton)
	m.cursor = 0
	m.offset = 0
	m.err = nil
	m.notice = ""
	return m, m.loadNext()
}
