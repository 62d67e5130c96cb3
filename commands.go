package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/tui/common"
)

type feedArgs struct {
	query app.FeedQuery
	pages int
}

func parseFeedArgs(args []string) (feedArgs, error) {
	fa := feedArgs{pages: 1}
	var terms []string
	for _, a := range args {
		switch {
		case a == "--events":
			fa.query.EventsOnly = true
		case strings.HasPrefix(a, "--range="):
			n, err := strconv.Atoi(strings.TrimPrefix(a, "--range="))
			if err != nil || n < 0 {
				return feedArgs{}, fmt.Errorf("invalid range: %s", a)
			}
			fa.query.Range = n
		case strings.HasPrefix(a, "--pages="):
			n, err := strconv.Atoi(strings.TrimPrefix(a, "--pages="))
			if err != nil || n < 1 {
				return feedArgs{}, fmt.Errorf("invalid pages: %s", a)
			}
			fa.pages = n
		case strings.HasPrefix(a, "--"):
			return feedArgs{}, fmt.Errorf("unknown flag: %s", a)
		default:
			terms = append(terms, a)
		}
	}
	fa.query.Terms = strings.Join(terms, " ")
	return fa, nil
}

func runFeedCommand(ctx context.Context, svc app.FeedFetcher, args []string, w io.Writer, opts ...app.Option) error {
	fa, err := parseFeedArgs(args)
	if err != nil {
		return err
	}
	return printFeed(ctx, svc, fa, w, opts...)
}

// printFeed loads up to fa.pages pages and prints every item as it is appended.
func printFeed(ctx context.Context, svc app.FeedFetcher, fa feedArgs, w io.Writer, opts ...app.Option) error {
	p := app.NewFeedPager(svc, fa.query.FirstCursor(), opts...)
	sub := p.Subscribe(func(ev app.PagerEvent) {
		if ev.Kind != app.PagerItemsAppended {
			return
		}
		for _, it := range ev.Items {
			fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(common.SanitizeText(it.Text)))
		}
	})
	defer sub.Close()

	for range fa.pages {
		issued, err := p.Trigger(ctx)
		if err != nil {
			return err
		}
		if !issued {
			break
		}
	}

	if p.State() == app.PagerExhausted {
		fmt.Fprintln(w, "-- end of feed --")
	} else {
		fmt.Fprintf(w, "-- more: --pages=%d --\n", fa.pages+1)
	}
	return nil
}

func runFriend(ctx context.Context, svc app.FriendshipService, args []string, w io.Writer, opts ...app.Option) error {
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid member id %q", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid member id %q", args[1])
	}
	action := domain.FriendRequest
	if len(args) > 2 {
		action = domain.ParseFriendAction(args[2])
	}

	b := app.NewFriendButton(svc, from, to, action, opts...)
	if err := b.Press(ctx); err != nil {
		if errors.Is(err, domain.ErrSameMember) {
			return errors.New("you cannot befriend yourself")
		}
		return err
	}
	if !b.Inert() {
		fmt.Fprintln(w, "Friendship already exists; nothing changed.")
		return nil
	}
	fmt.Fprintln(w, b.State())
	return nil
}

func runSet(ctx context.Context, svc app.FieldService, args []string, w io.Writer, opts ...app.Option) error {
	f := app.NewAutoField(svc, args[0], args[1], "", opts...)
	changed, err := f.Commit(ctx, args[2])
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(w, "Nothing to save.")
		return nil
	}
	fmt.Fprintf(w, "Saved %s.\n", f.Name)
	return nil
}
