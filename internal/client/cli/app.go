package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hitbim/bimio/internal/apierr"
	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/client/auth"
	"github.com/hitbim/bimio/internal/client/client"
	"github.com/hitbim/bimio/internal/client/config"
	"github.com/hitbim/bimio/internal/client/services"
	"github.com/hitbim/bimio/internal/client/session"
	"github.com/hitbim/bimio/internal/logging"
	"github.com/hitbim/bimio/internal/netx"
	"github.com/hitbim/bimio/internal/tokens"
)

// errReported means the command already told the user what went wrong; Run
// only has to turn it into a non-zero exit code.
var errReported = errors.New("command failed")

// SessionService is the part of session.Service the commands use.
type SessionService interface {
	Login(ctx context.Context, email, password string) session.Result
	Logout(ctx context.Context) session.Result
	Wait(ctx context.Context)
	CheckSession(ctx context.Context) (session.Status, error)
	IsLoggedIn(ctx context.Context) (bool, error)
}

type App struct {
	config  *config.Config
	log     logging.Logger
	session SessionService
	plugins services.PluginService
	db      *sql.DB
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp wires the CLI from configuration. A cache database that cannot be
// opened only disables the cached plugin list.
func NewApp(ctx context.Context, c *config.Config) *App {
	log := logging.NewLogger(os.Stderr, c.LogLevel)

	store := tokens.NewStore(c.TokenPath(), []byte(c.EncryptionKey))
	caller := api.NewCaller(c.RequestTimeout, log)
	requester := auth.NewRequester(caller, store, c.Endpoints.Refresh, log)

	db, err := client.InitDatabase(ctx, c.CachePath())
	if err != nil {
		log.Warn(ctx, "plugin list cache disabled", "path", c.CachePath(), "error", err)
		db = nil
	}

	return &App{
		config:  c,
		log:     log,
		session: session.NewService(caller, store, c.Endpoints, netx.LocalIP, log),
		plugins: services.NewPluginService(requester, store, c.Endpoints, c.ProjectDir, db, log),
		db:      db,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

// Close releases the cache database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return 1
	}

	cmd, rest := args[0], args[1:]
	if talksToServer(cmd) && a.config.EnvFile == "" {
		a.log.Warn(ctx, "no .env file found, server endpoints come from the environment only", "env", a.config.Env)
	}

	var err error
	switch cmd {
	case "login":
		err = a.login(ctx, rest)
	case "logout":
		err = a.logout(ctx, rest)
	case "session":
		err = a.showSession(ctx, rest)
	case "list", "mylist":
		err = a.list(ctx, rest)
	case "upload":
		err = a.upload(ctx, rest)
	case "download":
		err = a.download(ctx, rest)
	case "build":
		err = a.build(ctx, rest)
	case "check":
		a.check()
	case "version", "-version", "--version":
		a.version()
	case "help", "-h", "-help", "--help":
		err = a.help(rest)
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n\n", cmd)
		a.usage()
		return 1
	}

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(a.out, describe(err))
		}
		a.log.Debug(ctx, "command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

func talksToServer(cmd string) bool {
	switch cmd {
	case "login", "logout", "list", "mylist", "upload", "download":
		return true
	default:
		return false
	}
}

// requireSession prints reason and the login hint when nobody is logged in.
func (a *App) requireSession(ctx context.Context, reason string) error {
	ok, err := a.session.IsLoggedIn(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading session failed", "error", err)
	}
	if ok {
		return nil
	}
	fmt.Fprintln(a.out, reason)
	a.guideLogin()
	return errReported
}

func (a *App) guide(what, command string) {
	fmt.Fprintf(a.out, "%s\n  $ %s\n", what, command)
}

func (a *App) guideLogin() {
	a.guide("To login to Hitbim Services ...", "bimio login")
}

// flagSet returns a command flag set that reports problems to the user
// instead of exiting.
func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bimio %s\n", usageOf(name))
		fs.PrintDefaults()
	}
	return fs
}

// parse wraps fs.Parse; -h prints usage and succeeds, anything else that
// fails has already been printed by the flag package.
func parse(fs *flag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, errReported
	}
	return false, nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apierr.KindOther {
			return fmt.Sprintf("%s (%s)", ae.Desc, ae.Msg)
		}
		return ae.Desc
	}
	return err.Error()
}
