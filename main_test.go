package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

func TestParseCLIArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		mode   cliMode
		rest   []string
		layout string
		msg    string
	}{
		{name: "run default", args: nil, mode: cliRun},
		{name: "version long", args: []string{"--version"}, mode: cliVersion},
		{name: "version short", args: []string{"-v"}, mode: cliVersion},
		{name: "version single-dash", args: []string{"-version"}, mode: cliVersion},
		{name: "help long", args: []string{"--help"}, mode: cliHelp},
		{name: "help short", args: []string{"-h"}, mode: cliHelp},
		{name: "help word", args: []string{"help"}, mode: cliHelp},
		{name: "layout", args: []string{"--layout=mobile"}, mode: cliRun, layout: "mobile"},
		{name: "layout before command", args: []string{"--layout=mobile", "feed", "#yoga"}, mode: cliFeed, rest: []string{"#yoga"}, layout: "mobile"},
		{name: "layout before friend", args: []string{"--layout=desktop", "friend", "1", "2"}, mode: cliFriend, rest: []string{"1", "2"}, layout: "desktop"},
		{name: "layout twice", args: []string{"--layout=mobile", "--layout=desktop"}, mode: cliInvalid, msg: "--layout given twice"},
		{name: "bad layout", args: []string{"--layout=tablet"}, mode: cliInvalid, msg: "unknown layout: tablet"},
		{name: "login", args: []string{"login", "anna"}, mode: cliLogin, rest: []string{"anna"}},
		{name: "login without user", args: []string{"login"}, mode: cliInvalid, msg: "login needs exactly one username"},
		{name: "feed", args: []string{"feed", "#yoga", "--events"}, mode: cliFeed, rest: []string{"#yoga", "--events"}},
		{name: "friend", args: []string{"friend", "1", "2", "block"}, mode: cliFriend, rest: []string{"1", "2", "block"}},
		{name: "friend missing to", args: []string{"friend", "1"}, mode: cliInvalid},
		{name: "set", args: []string{"set", "members/4", "about", "hi"}, mode: cliSet, rest: []string{"members/4", "about", "hi"}},
		{name: "invalid flag", args: []string{"--bogus"}, mode: cliInvalid, msg: "unexpected argument: --bogus"},
		{name: "invalid flags", args: []string{"--bogus", "--pogus"}, mode: cliInvalid, msg: "unexpected argument: --bogus --pogus"},
		{name: "too many args", args: []string{"--version", "extra"}, mode: cliVersion},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := parseCLIArgs(tc.args)
			if cmd.mode != tc.mode {
				t.Fatalf("mode mismatch: got %v want %v", cmd.mode, tc.mode)
			}
			if tc.msg != "" && cmd.msg != tc.msg {
				t.Fatalf("msg mismatch: got %q want %q", cmd.msg, tc.msg)
			}
			if strings.Join(cmd.args, "|") != strings.Join(tc.rest, "|") {
				t.Fatalf("args mismatch: got %q want %q", cmd.args, tc.rest)
			}
			if cmd.layout != tc.layout {
				t.Fatalf("layout mismatch: got %q want %q", cmd.layout, tc.layout)
			}
		})
	}
}

type countingSaver struct{ saves int }

func (s *countingSaver) Save() error {
	s.saves++
	return nil
}

func TestWithSession_SavesCookiesAfterCommand(t *testing.T) {
	store := &countingSaver{}
	svc := pagedFetcher{"1/messages/1/": {Items: []domain.Item{{Text: "x"}}}}
	var out bytes.Buffer
	err := withSession(store, zap.NewNop(), func() error {
		return runFeedCommand(context.Background(), svc, nil, &out)
	})
	if err != nil || store.saves != 1 {
		t.Fatalf("expected one save after success, err=%v saves=%d", err, store.saves)
	}

	failing := errors.New("boom")
	err = withSession(store, zap.NewNop(), func() error { return failing })
	if !errors.Is(err, failing) || store.saves != 2 {
		t.Fatalf("expected save after failure too, err=%v saves=%d", err, store.saves)
	}
}

func TestParseFeedArgs(t *testing.T) {
	fa, err := parseFeedArgs([]string{"#yoga", "--events", "--range=5", "@global", "--pages=3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fa.pages != 3 || !fa.query.EventsOnly || fa.query.Range != 5 {
		t.Fatalf("unexpected args: %+v", fa)
	}
	if got := fa.query.FirstCursor(); got != "1/messages/1/%23yoga%20@global?events&range=5" {
		t.Fatalf("unexpected cursor %q", got)
	}

	for _, bad := range []string{"--range=x", "--pages=0", "--nope"} {
		if _, err := parseFeedArgs([]string{bad}); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestResolveVersionInfo(t *testing.T) {
	v, c, d := resolveVersionInfo("dev", "none", "unknown", "v1.2.3", map[string]string{
		"vcs.revision": "0123456789abcdef",
		"vcs.time":     "2024-05-01T10:00:00Z",
	})
	if v != "v1.2.3" || c != "0123456789ab" || d != "2024-05-01T10:00:00Z" {
		t.Fatalf("unexpected version info: %s %s %s", v, c, d)
	}

	v, c, d = resolveVersionInfo("v9", "abc", "today", "(devel)", nil)
	if v != "v9" || c != "abc" || d != "today" {
		t.Fatalf("expected ldflags values kept, got %s %s %s", v, c, d)
	}
}

type pagedFetcher map[string]domain.FeedPage

func (p pagedFetcher) FetchPage(_ context.Context, cursor string) (domain.FeedPage, error) {
	return p[cursor], nil
}

func TestPrintFeed_StopsAtLastPage(t *testing.T) {
	svc := pagedFetcher{
		"1/messages/1/": {Items: []domain.Item{{Text: "first"}}, NextCursor: "1/messages/2/"},
		"1/messages/2/": {Items: []domain.Item{{Text: "second\x1b[31m"}}},
	}
	var out bytes.Buffer
	if err := runFeedCommand(context.Background(), svc, []string{"--pages=5"}, &out); err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	want := "first\n\nsecond\n\n-- end of feed --\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestPrintFeed_ReportsMorePages(t *testing.T) {
	svc := pagedFetcher{
		"1/messages/1/": {Items: []domain.Item{{Text: "first"}}, NextCursor: "1/messages/2/"},
	}
	var out bytes.Buffer
	if err := runFeedCommand(context.Background(), svc, nil, &out); err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if !strings.HasSuffix(out.String(), "-- more: --pages=2 --\n") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

type friendsFunc func(from, to, status int) error

func (f friendsFunc) SetFriendship(_ context.Context, from, to, status int) error {
	return f(from, to, status)
}

func TestRunFriend(t *testing.T) {
	var got [3]int
	svc := friendsFunc(func(from, to, status int) error {
		got = [3]int{from, to, status}
		return nil
	})
	var out bytes.Buffer
	if err := runFriend(context.Background(), svc, []string{"3", "8", "block"}, &out); err != nil {
		t.Fatalf("friend failed: %v", err)
	}
	if got != [3]int{3, 8, 2} || strings.TrimSpace(out.String()) != "Blocked" {
		t.Fatalf("unexpected call %v output %q", got, out.String())
	}

	dup := friendsFunc(func(int, int, int) error {
		return &domain.APIError{Status: 400, Detail: domain.DetailAlreadyExists}
	})
	out.Reset()
	if err := runFriend(context.Background(), dup, []string{"3", "8"}, &out); err != nil {
		t.Fatalf("expected duplicate to be silent, got %v", err)
	}
	if !strings.Contains(out.String(), "nothing changed") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := runFriend(context.Background(), svc, []string{"3", "3"}, &out); err == nil {
		t.Fatal("expected error for self friendship")
	}
}

type fieldsFunc func(entity, field, value string) error

func (f fieldsFunc) PatchField(_ context.Context, entity, field, value string) error {
	return f(entity, field, value)
}

func TestRunSet(t *testing.T) {
	var call string
	svc := fieldsFunc(func(entity, field, value string) error {
		call = entity + " " + field + "=" + value
		return nil
	})
	var out bytes.Buffer
	if err := runSet(context.Background(), svc, []string{"members/4", "about", "Hello"}, &out); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if call != "members/4 about=Hello" || strings.TrimSpace(out.String()) != "Saved about." {
		t.Fatalf("unexpected call %q output %q", call, out.String())
	}
}
