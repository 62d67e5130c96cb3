package app

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/CrestNiraj12/mumlife/domain"
)

// NationwideRange is the event distance used when no range is selected.
const NationwideRange = 9999

var filterFlagRe = regexp.MustCompile(`@\w+`)

// ActiveFilter returns the first filter flag found in the search terms,
// defaulting to the local feed.
func ActiveFilter(terms string) domain.Filter {
	switch domain.Filter(filterFlagRe.FindString(terms)) {
	case domain.FilterGlobal:
		return domain.FilterGlobal
	case domain.FilterFriends:
		return domain.FilterFriends
	case domain.FilterPrivate:
		return domain.FilterPrivate
	default:
		return domain.FilterLocal
	}
}

// ApplyFilter replaces every flag in terms with f.
func ApplyFilter(terms string, f domain.Filter) string {
	kept := make([]string, 0, 4)
	for _, t := range strings.Fields(terms) {
		if strings.HasPrefix(t, "@") {
			continue
		}
		kept = append(kept, t)
	}
	kept = append(kept, string(f))
	return strings.Join(kept, " ")
}

// NextFilter cycles local → friends → global → local.
func NextFilter(f domain.Filter) domain.Filter {
	switch f {
	case domain.FilterLocal:
		return domain.FilterFriends
	case domain.FilterFriends:
		return domain.FilterGlobal
	default:
		return domain.FilterLocal
	}
}

// FeedQuery describes a feed listing. Its first cursor starts pagination.
type FeedQuery struct {
	Terms      string
	EventsOnly bool
	Range      int // Event distance; 0 means nationwide
}

// FirstCursor returns the cursor of the first page for q.
func (q FeedQuery) FirstCursor() string {
	cursor := "1/messages/1/" + url.PathEscape(strings.TrimSpace(q.Terms))
	if q.EventsOnly {
		r := q.Range
		if r <= 0 {
			r = NationwideRange
		}
		cursor += fmt.Sprintf("?events&range=%d", r)
	}
	return cursor
}

// WithFilter returns q with its filter flag replaced.
func (q FeedQuery) WithFilter(f domain.Filter) FeedQuery {
	q.Terms = ApplyFilter(q.Terms, f)
	return q
}

// Key identifies the listing; responses for another key are stale.
func (q FeedQuery) Key() string {
	return q.FirstCursor()
}
