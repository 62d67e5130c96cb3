package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/app"
	"github.com/CrestNiraj12/mumlife/domain"
	"github.com/CrestNiraj12/mumlife/infra/config"
	"github.com/CrestNiraj12/mumlife/infra/editor"
	"github.com/CrestNiraj12/mumlife/infra/logging"
	"github.com/CrestNiraj12/mumlife/infra/mumlife"
	"github.com/CrestNiraj12/mumlife/infra/session"
	"github.com/CrestNiraj12/mumlife/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliMode int

const (
	cliRun cliMode = iota
	cliVersion
	cliHelp
	cliLogin
	cliFeed
	cliFriend
	cliSet
	cliInvalid
)

// cliCommand is the parsed command line. layout is the --layout value,
// which may precede any command.
type cliCommand struct {
	mode   cliMode
	args   []string
	layout string
	msg    string
}

func parseCLIArgs(args []string) cliCommand {
	var layout string
	if len(args) > 0 && strings.HasPrefix(args[0], "--layout=") {
		layout = strings.TrimPrefix(args[0], "--layout=")
		if layout != session.VersionMobile && layout != session.VersionDesktop {
			return cliCommand{mode: cliInvalid, msg: fmt.Sprintf("unknown layout: %s", layout)}
		}
		args = args[1:]
	}
	cmd := parseCommand(args)
	if cmd.mode != cliInvalid {
		cmd.layout = layout
	}
	return cmd
}

func parseCommand(args []string) cliCommand {
	if len(args) == 0 {
		return cliCommand{mode: cliRun}
	}

	switch a := args[0]; {
	case a == "--version" || a == "-version" || a == "-v":
		return cliCommand{mode: cliVersion}
	case a == "--help" || a == "-h" || a == "help":
		return cliCommand{mode: cliHelp}
	case strings.HasPrefix(a, "--layout="):
		return cliCommand{mode: cliInvalid, msg: "--layout given twice"}
	case a == "login":
		if len(args) != 2 {
			return cliCommand{mode: cliInvalid, msg: "login needs exactly one username"}
		}
		return cliCommand{mode: cliLogin, args: args[1:]}
	case a == "feed":
		return cliCommand{mode: cliFeed, args: args[1:]}
	case a == "friend":
		if len(args) < 3 || len(args) > 4 {
			return cliCommand{mode: cliInvalid, msg: "friend needs <from> <to> [request|confirm|block]"}
		}
		return cliCommand{mode: cliFriend, args: args[1:]}
	case a == "set":
		if len(args) != 4 {
			return cliCommand{mode: cliInvalid, msg: "set needs <entity> <field> <value>"}
		}
		return cliCommand{mode: cliSet, args: args[1:]}
	default:
		return cliCommand{mode: cliInvalid, msg: fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))}
	}
}

func usage() string {
	return `Usage:
  mumlife [--layout=mobile|desktop] [command]
                                             no command opens the feed
  mumlife login <username>                   sign in (password from MUMLIFE_PASSWORD or stdin)
  mumlife feed [--events] [--range=N] [--pages=N] [terms...]
  mumlife friend <from> <to> [request|confirm|block]
  mumlife set <entity> <field> <value>       e.g. set members/12 about "Hello"
  mumlife [--version|-version|-v] [--help|-h]`
}

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func main() {
	cli := parseCLIArgs(os.Args[1:])
	switch cli.mode {
	case cliVersion:
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("Mumlife %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", cli.msg, usage())
		os.Exit(2)
	}

	// 1. Load config from environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// 2. Build infrastructure.
	store, err := session.Open(cfg.SiteURL, cfg.CookiePath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
		os.Exit(1)
	}
	if cli.layout != "" {
		store.SetVersion(cli.layout)
	}
	client := mumlife.NewClient(cfg.SiteURL, cfg.APIURL, store, cfg.Timeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = withSession(store, log, func() error {
		switch cli.mode {
		case cliLogin:
			return runLogin(ctx, cfg, client, store, cli.args[0])
		case cliFeed:
			return runFeedCommand(ctx, mumlife.NewFeedService(client), cli.args, os.Stdout,
				app.WithLogger(log), app.WithTimeout(cfg.Timeout))
		case cliFriend:
			return runFriend(ctx, mumlife.NewFriendshipService(client), cli.args, os.Stdout, app.WithLogger(log))
		case cliSet:
			return runSet(ctx, mumlife.NewFieldService(client), cli.args, os.Stdout, app.WithLogger(log))
		default:
			return runTUI(cfg, client, store, log)
		}
	})
	if err != nil {
		log.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "mumlife: %v\n", err)
		os.Exit(1)
	}
}

type cookieSaver interface {
	Save() error
}

// withSession runs fn and then persists the cookie store, whether or not
// fn failed, so cookies rotated by the server are kept.
func withSession(store cookieSaver, log *zap.Logger, fn func() error) error {
	err := fn()
	if serr := store.Save(); serr != nil {
		log.Warn("saving cookies failed", zap.Error(serr))
	}
	return err
}

func runLogin(ctx context.Context, cfg config.Config, client *mumlife.Client, store *session.Store, username string) error {
	password := os.Getenv("MUMLIFE_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if err := session.Login(ctx, client.HTTPClient(), store, cfg.SiteURL+cfg.LoginPath, username, password); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s.\n", username)
	return nil
}

func runTUI(cfg config.Config, client *mumlife.Client, store *session.Store, log *zap.Logger) error {
	if !store.LoggedIn() {
		return fmt.Errorf("not logged in; run `mumlife login <username>` first")
	}

	prefs := prefsStore{path: cfg.UIStatePath, store: store}

	uiState, err := config.LoadUIState(cfg.UIStatePath)
	if err != nil {
		log.Warn("ignoring ui state", zap.Error(err))
	}
	filter := domain.FilterLocal
	if uiState.Filter != "" {
		filter = app.ActiveFilter(uiState.Filter)
	}
	rng := uiState.Range
	if rng == 0 {
		rng = store.Range()
	}

	fields := mumlife.NewFieldService(client)

	// Wire root TUI model.
	rootModel := tui.NewApp(tui.Deps{
		Feed:          mumlife.NewFeedService(client),
		Messages:      mumlife.NewMessageService(client, cfg.MessagePath),
		Friends:       mumlife.NewFriendshipService(client),
		Fields:        fields,
		Profile:       fields,
		Notifications: mumlife.NewNotificationService(client),
		Editor:        editor.NewEnvEditor(),
		Prefs:         prefs,
		SiteURL:       cfg.SiteURL,
		Query:         app.FeedQuery{Terms: string(filter), EventsOnly: uiState.Events, Range: rng},
		Compact:       store.Version() == session.VersionMobile,
		AutoloadLines: cfg.AutoloadLines,
		Timeout:       cfg.Timeout,
		ProfileEntity: cfg.ProfileEntity,
		ProfileFields: cfg.ProfileFields,
		Logger:        log,
	})

	p := tea.NewProgram(rootModel, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// prefsStore persists feed choices to the UI state file and the layout
// to the version cookie.
type prefsStore struct {
	path  string
	store *session.Store
}

func (p prefsStore) SaveFeed(filter domain.Filter, events bool, rng int) error {
	if rng > 0 {
		p.store.SetRange(rng)
	}
	return config.SaveUIState(p.path, config.UIState{Filter: string(filter), Events: events, Range: rng})
}

func (p prefsStore) SaveLayout(compact bool) error {
	v := session.VersionDesktop
	if compact {
		v = session.VersionMobile
	}
	p.store.SetVersion(v)
	return p.store.Save()
}
