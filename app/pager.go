package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

// PagerState is the lifecycle state of a FeedPager.
type PagerState int

const (
	PagerIdle PagerState = iota
	PagerLoading
	PagerExhausted
)

func (s PagerState) String() string {
	switch s {
	case PagerLoading:
		return "loading"
	case PagerExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// PagerEventKind identifies what changed in a FeedPager.
type PagerEventKind int

const (
	PagerItemsAppended PagerEventKind = iota
	PagerStateChanged
	PagerFetchFailed
	PagerReset
)

// PagerEvent is delivered to subscribers after every transition.
type PagerEvent struct {
	Kind  PagerEventKind
	State PagerState
	Items []domain.Item // Appended items, for PagerItemsAppended
	Err   error         // For PagerFetchFailed
}

// Ticket identifies one in-flight fetch. Results for an outdated ticket
// (the pager was reset meanwhile) are discarded.
type Ticket struct {
	Cursor string
	Seq    int
}

// Subscription is a registered pager listener.
type Subscription struct {
	close func()
}

// Close unregisters the listener. Safe to call more than once.
func (s Subscription) Close() {
	if s.close != nil {
		s.close()
	}
}

// FeedPager grows a list of feed items one cursor page at a time.
// At most one fetch is in flight; triggers while loading or after the
// feed is exhausted are dropped.
type FeedPager struct {
	mu      sync.Mutex
	fetcher FeedFetcher
	cursor  string
	state   PagerState
	seq     int
	items   []domain.Item

	threshold int
	timeout   time.Duration
	log       *zap.Logger

	subs    map[int]func(PagerEvent)
	nextSub int
}

// NewFeedPager creates a pager positioned at the server-rendered cursor.
// An empty cursor yields an exhausted pager.
func NewFeedPager(fetcher FeedFetcher, initialCursor string, opts ...Option) *FeedPager {
	o := buildOptions(opts)
	p := &FeedPager{
		fetcher:   fetcher,
		threshold: o.threshold,
		timeout:   o.timeout,
		log:       o.log,
		subs:      make(map[int]func(PagerEvent)),
	}
	p.cursor = NormalizeCursor(initialCursor)
	p.state = stateFor(p.cursor)
	return p
}

// NormalizeCursor undoes HTML escaping of the cursor's query separator.
func NormalizeCursor(cursor string) string {
	return strings.ReplaceAll(strings.TrimSpace(cursor), "&amp;", "&")
}

func stateFor(cursor string) PagerState {
	if cursor == "" {
		return PagerExhausted
	}
	return PagerIdle
}

// Trigger loads the next page. It reports whether a request was issued;
// the error is the fetch failure, if any, after the pager is back to idle.
func (p *FeedPager) Trigger(ctx context.Context) (bool, error) {
	t, ok := p.Begin()
	if !ok {
		return false, nil
	}
	page, err := p.Fetch(ctx, t)
	p.Resolve(t, page, err)
	return true, err
}

// AutoTrigger calls Trigger when the remaining scroll distance is below
// the pager's threshold.
func (p *FeedPager) AutoTrigger(ctx context.Context, remaining int) (bool, error) {
	if !p.NearBottom(remaining) {
		return false, nil
	}
	return p.Trigger(ctx)
}

// Begin moves an idle pager to loading and returns the ticket to fetch.
func (p *FeedPager) Begin() (Ticket, bool) {
	p.mu.Lock()
	if p.state != PagerIdle {
		p.mu.Unlock()
		return Ticket{}, false
	}
	p.state = PagerLoading
	p.seq++
	t := Ticket{Cursor: p.cursor, Seq: p.seq}
	p.mu.Unlock()

	p.log.Debug("feed page requested", zap.String("cursor", t.Cursor), zap.Int("seq", t.Seq))
	p.emit(PagerEvent{Kind: PagerStateChanged, State: PagerLoading})
	return t, true
}

// Fetch runs the request for a ticket under the pager's timeout.
// It does not touch pager state; pass the result to Resolve.
func (p *FeedPager) Fetch(ctx context.Context, t Ticket) (domain.FeedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	page, err := p.fetcher.FetchPage(ctx, t.Cursor)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("fetching feed page: %w", err)
	}
	return page, nil
}

// Resolve applies the outcome of a fetch started by Begin. It reports
// false when the ticket is stale and the result was dropped.
func (p *FeedPager) Resolve(t Ticket, page domain.FeedPage, err error) bool {
	p.mu.Lock()
	if p.state != PagerLoading || t.Seq != p.seq {
		p.mu.Unlock()
		p.log.Debug("stale feed page dropped", zap.String("cursor", t.Cursor), zap.Int("seq", t.Seq))
		return false
	}
	if err != nil {
		p.state = PagerIdle
		p.mu.Unlock()
		p.log.Warn("feed fetch failed", zap.String("cursor", t.Cursor), zap.Error(err))
		p.emit(PagerEvent{Kind: PagerFetchFailed, State: PagerIdle, Err: err})
		return true
	}
	p.items = append(p.items, page.Items...)
	p.cursor = NormalizeCursor(page.NextCursor)
	p.state = stateFor(p.cursor)
	state := p.state
	appended := append([]domain.Item(nil), page.Items...)
	p.mu.Unlock()

	p.log.Debug("feed page appended", zap.Int("items", len(appended)), zap.Stringer("state", state))
	p.emit(PagerEvent{Kind: PagerItemsAppended, State: state, Items: appended})
	p.emit(PagerEvent{Kind: PagerStateChanged, State: state})
	return true
}

// Reset restarts pagination from a new first cursor, dropping all items.
// A fetch still in flight is discarded when it completes.
func (p *FeedPager) Reset(cursor string) {
	p.mu.Lock()
	p.cursor = NormalizeCursor(cursor)
	p.state = stateFor(p.cursor)
	p.seq++
	p.items = nil
	state := p.state
	p.mu.Unlock()

	p.emit(PagerEvent{Kind: PagerReset, State: state})
}

// NearBottom reports whether an automatic load should fire for the
// given remaining scroll distance.
func (p *FeedPager) NearBottom(remaining int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == PagerIdle && p.cursor != "" && remaining < p.threshold
}

// ShowLoadMore reports whether the manual "load more" control is visible.
func (p *FeedPager) ShowLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor != "" && p.state != PagerLoading
}

// State returns the current lifecycle state.
func (p *FeedPager) State() PagerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Cursor returns the cursor of the next page, empty when exhausted.
func (p *FeedPager) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Items returns a copy of every item appended so far.
func (p *FeedPager) Items() []domain.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Item(nil), p.items...)
}

// Threshold returns the auto-load distance.
func (p *FeedPager) Threshold() int { return p.threshold }

// Subscribe registers fn for every pager event until the returned
// subscription is closed.
func (p *FeedPager) Subscribe(fn func(PagerEvent)) Subscription {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return Subscription{close: func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}}
}

func (p *FeedPager) emit(ev PagerEvent) {
	p.mu.Lock()
	fns := make([]func(PagerEvent), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
