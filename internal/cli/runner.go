// Package cli routes subcommands to session flows and renders their
// results. Exit codes: 0 ok, 1 runtime/service error, 2 usage or
// missing-session error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"todoq/internal/api"
	"todoq/internal/config"
	"todoq/internal/credstore"
	"todoq/internal/logging"
	"todoq/internal/session"
	"todoq/internal/tui"
	"todoq/internal/ui"
)

// Options tune behavior from root flags.
type Options struct {
	ConfigDir string // empty means credstore.DefaultDir()
	ServerURL string // overrides config file and env when set
	Plain     bool   // non-interactive ls output
	Group     bool   // group plain ls output by pending/done
	Debug     bool
}

// Run dispatches subcommands and returns an exit code.
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	dir := opt.ConfigDir
	if dir == "" {
		dir = credstore.DefaultDir()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	if opt.ServerURL != "" {
		cfg.ServerURL = opt.ServerURL
	}
	cfg.Debug = opt.Debug
	ui.SetTheme(cfg.Theme)

	switch cmd {
	case "register":
		if len(a) != 1 {
			ui.Fail("usage: todoq register <username>")
			return 2
		}
		return doRegister(ctx, cfg, a[0])

	case "logout":
		return doLogout(cfg)

	case "whoami":
		return doWhoAmI(cfg)

	case "ls":
		return doList(ctx, cfg, opt.Plain, opt.Group)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todoq add <title...>")
			return 2
		}
		return doAdd(ctx, cfg, strings.Join(a, " "))

	case "done":
		id, code := parseID(a, "done")
		if code != 0 {
			return code
		}
		return doToggle(ctx, cfg, id)

	case "rm":
		id, code := parseID(a, "rm")
		if code != 0 {
			return code
		}
		return doRemove(ctx, cfg, id)

	case "stats":
		return doStats(ctx, cfg)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todoq - terminal client for the todo service

Usage:
  todoq [flags] <subcommand> [args]

Subcommands:
  register <username>  Create an account and store its API key
  logout               Forget the API key and local state (local only)
  whoami               Show session status, no network call
  ls                   List todos (interactive; -plain for pipes)
  add <title...>       Add a new todo
  done <id>            Toggle done for the todo with this id
  rm <id>              Delete the todo with this id
  stats                Show server-computed completion stats

Flags:
  -config <dir>   Config directory (default ~/.todoq)
  -server <url>   Service base URL
  -plain          Plain ls output
  -group          Group plain ls output by pending/done
  -debug          Verbose logging

Examples:
  todoq register alice
  todoq add "Buy milk"
  todoq done 2
`)
}

func parseID(a []string, cmd string) (int64, int) {
	if len(a) != 1 {
		ui.Fail(fmt.Sprintf("usage: todoq %s <id>", cmd))
		return 0, 2
	}
	id, err := strconv.ParseInt(a[0], 10, 64)
	if err != nil {
		ui.Fail(cmd + ": not a todo id: " + a[0])
		return 0, 2
	}
	return id, 0
}

// newController wires store, client, and logger for one invocation.
func newController(cfg *config.Config, logger *log.Logger) *session.Controller {
	store := credstore.New(cfg.Dir)
	client := api.New(cfg.ServerURL, logger)
	return session.NewController(store, client, logger)
}

// initSession restores a stored session and performs the initial load.
// Exit code 2 when no session exists.
func initSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session.Controller, int) {
	ctrl := newController(cfg, logger)
	if err := ctrl.Initialize(ctx); err != nil {
		return nil, failCode(err)
	}
	if !ctrl.Authenticated() {
		ui.Fail("not registered. Run: todoq register <username>")
		return nil, 2
	}
	return ctrl, 0
}

// failCode reports an error to the user and maps it to an exit code.
// The full detail is already in the log; the user gets one line.
func failCode(err error) int {
	var inv *api.InvalidInputError
	if errors.As(err, &inv) {
		ui.Fail(inv.Error())
		return 2
	}
	if errors.Is(err, api.ErrUnauthenticated) || api.IsAuthRejection(err) {
		ui.Fail("credential rejected. Run: todoq register <username>")
		return 2
	}
	ui.Fail(err.Error())
	return 1
}

// -------------- subcommand impls ----------------

func doRegister(ctx context.Context, cfg *config.Config, username string) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	ctrl := newController(cfg, logger)
	if err := ctrl.Register(ctx, username); err != nil {
		return failCode(err)
	}
	ui.OK("registered as " + ctrl.Username())
	if stats, ok := ctrl.State().Stats(); ok {
		fmt.Println(ui.C(ui.Current().Muted,
			fmt.Sprintf("%d todos, %d done", stats.Total, stats.Done)))
	}
	return 0
}

func doLogout(cfg *config.Config) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	store := credstore.New(cfg.Dir)
	creds, err := store.Get()
	if err != nil {
		ui.Fail("credentials: " + err.Error())
		return 1
	}
	if creds != nil && creds.Source == "env" {
		ui.OK("api key is provided by " + credstore.EnvAPIKey + " (nothing to delete)")
		return 0
	}
	ctrl := session.NewController(store, api.New(cfg.ServerURL, logger), logger)
	if err := ctrl.Logout(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doWhoAmI(cfg *config.Config) int {
	store := credstore.New(cfg.Dir)
	creds, err := store.Get()
	if err != nil {
		ui.Fail("credentials: " + err.Error())
		return 1
	}
	if creds == nil {
		fmt.Println(ui.C(ui.Current().Muted, "not registered"))
		fmt.Println("Run: todoq register <username>")
		return 0
	}
	fmt.Printf("username: %s\n", creds.Username)
	fmt.Printf("source: %s\n", creds.Source)
	fmt.Printf("server: %s\n", cfg.ServerURL)
	return 0
}

func doList(ctx context.Context, cfg *config.Config, plain, group bool) int {
	if plain || group || !isTTY() {
		logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
		ctrl, code := initSession(ctx, cfg, logger)
		if code != 0 {
			return code
		}
		ui.Panel(os.Stdout, listLines(ctrl, group))
		return 0
	}

	// Interactive view: diagnostics go to a file so the alt screen
	// stays clean.
	logger, closeLog, err := logging.NewFileLogger(cfg.Dir, cfg.LogLevel, cfg.Debug)
	if err != nil {
		ui.Fail("log: " + err.Error())
		return 1
	}
	defer closeLog()
	ctrl, code := initSession(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	if err := tui.Run(ctx, ctrl); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doAdd(ctx context.Context, cfg *config.Config, title string) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	ctrl, code := initSession(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	todo, err := ctrl.Create(ctx, title)
	if err != nil {
		return failCode(err)
	}
	ui.OK(fmt.Sprintf("added #%d", todo.ID))
	return 0
}

func doToggle(ctx context.Context, cfg *config.Config, id int64) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	ctrl, code := initSession(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	todo, err := ctrl.Toggle(ctx, id)
	if err != nil {
		return failCode(err)
	}
	if todo.Done {
		ui.OK(fmt.Sprintf("done #%d", todo.ID))
	} else {
		ui.OK(fmt.Sprintf("reopened #%d", todo.ID))
	}
	return 0
}

func doRemove(ctx context.Context, cfg *config.Config, id int64) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	ctrl, code := initSession(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	if err := ctrl.Remove(ctx, id); err != nil {
		return failCode(err)
	}
	ui.OK(fmt.Sprintf("removed #%d", id))
	return 0
}

func doStats(ctx context.Context, cfg *config.Config) int {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Debug)
	ctrl, code := initSession(ctx, cfg, logger)
	if code != 0 {
		return code
	}
	stats, ok := ctrl.State().Stats()
	if !ok {
		ui.Fail("no stats")
		return 1
	}
	t := ui.Current()
	lines := []string{
		fmt.Sprintf("%s  %s %d  %s %d  %s %d",
			ui.C(t.Title, "Stats"),
			ui.C(t.Success, t.SymDone), stats.Done,
			ui.C(t.Pending, t.SymUnchecked), stats.NotDone,
			ui.C(t.Accent, "Total"), stats.Total),
		ui.C(t.Muted, ui.ProgressBar(stats.Done, stats.Total, 28)),
	}
	ui.Panel(os.Stdout, lines)
	return 0
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
