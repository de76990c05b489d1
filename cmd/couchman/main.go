package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/couchman/internal/config"
	"github.com/kailas-cloud/couchman/internal/db/couchdb"
	logpkg "github.com/kailas-cloud/couchman/internal/logger"
	databaserepo "github.com/kailas-cloud/couchman/internal/repository/database"
	documentrepo "github.com/kailas-cloud/couchman/internal/repository/document"
	indexrepo "github.com/kailas-cloud/couchman/internal/repository/index"
	serverrepo "github.com/kailas-cloud/couchman/internal/repository/server"
	databaseuc "github.com/kailas-cloud/couchman/internal/usecase/database"
	documentuc "github.com/kailas-cloud/couchman/internal/usecase/document"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
	indexuc "github.com/kailas-cloud/couchman/internal/usecase/index"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError is a malformed command line; it exits with exitUsage.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	args    string
	summary string
	// offline commands never talk to CouchDB.
	offline bool
	run     func(ctx context.Context, a *app, args []string) error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("couchman", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagURL      string
		flagUser     string
		flagPassword string
		flagTimeout  time.Duration
		flagLogLevel string
	)
	fs.StringVar(&flagURL, "url", "", "CouchDB server URL (default from config or COUCHDB_URL)")
	fs.StringVar(&flagUser, "user", "", "CouchDB user (default COUCHDB_USER)")
	fs.StringVar(&flagPassword, "password", "", "CouchDB password (default COUCHDB_PASSWORD)")
	fs.DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (default from config)")
	fs.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		printUsage(fs)
		return exitUsage
	}

	cmd, ok := commands()[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n", fs.Arg(0))
		printUsage(fs)
		return exitUsage
	}

	env := config.GetEnv()
	cfg, err := config.LoadOrDefault(env)
	if err != nil {
		fmt.Fprintf(stderr, "error: load config: %v\n", err)
		return exitFailure
	}
	if flagURL != "" {
		cfg.CouchDB.URL = flagURL
	} else if u := os.Getenv("COUCHDB_URL"); u != "" {
		cfg.CouchDB.URL = u
	}
	if flagTimeout > 0 {
		cfg.CouchDB.TimeoutSec = max(1, int(flagTimeout.Round(time.Second)/time.Second))
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}

	loggerEnv := "cli"
	level := flagLogLevel
	if cmd.name == "serve" {
		loggerEnv, level = env, cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(loggerEnv, level)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	a := &app{
		cfg: cfg,
		creds: couchdb.Credentials{
			Username: firstNonEmpty(flagUser, os.Getenv("COUCHDB_USER")),
			Password: firstNonEmpty(flagPassword, os.Getenv("COUCHDB_PASSWORD")),
		},
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	if !cmd.offline {
		if err := a.connect(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFailure
		}
		defer a.close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, fs.Args()[1:]); err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(stderr, "error: %v\nusage: couchman %s %s\n", err, cmd.name, cmd.args)
			return exitUsage
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// app is the composition root shared by all commands.
type app struct {
	cfg    config.Config
	creds  couchdb.Credentials
	logger *zap.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	store     *couchdb.Store
	server    *serverrepo.Repo
	databases *databaseuc.Service
	indexes   *indexuc.Service
	documents *documentuc.Service
	health    *healthuc.Service
}

// connect builds the CouchDB store and the use case services. No request is made.
func (a *app) connect() error {
	store, err := couchdb.NewStore(couchdb.Config{
		URL:      a.cfg.CouchDB.URL,
		Username: a.creds.Username,
		Password: a.creds.Password,
		Timeout:  time.Duration(a.cfg.CouchDB.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("couchdb client: %w", err)
	}
	a.store = store
	a.server = serverrepo.New(store)

	dbRepo := databaserepo.New(store)
	idxRepo := indexrepo.New(store)
	docRepo := documentrepo.New(store)

	a.indexes = indexuc.New(idxRepo)
	a.databases = databaseuc.New(dbRepo, idxRepo).
		WithDefaultIndex(!a.cfg.CouchDB.SkipDefaultIndex).
		WithLogger(a.logger)
	a.documents = documentuc.New(docRepo)
	a.health = healthuc.New(a.server, a.databases)
	return nil
}

// hasCredentials reports whether default CouchDB credentials are configured.
func (a *app) hasCredentials() bool {
	return a.creds.Username != "" || a.creds.Password != ""
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: couchman [global flags] <command> [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		fmt.Fprintf(out, "  %-15s %-32s %s\n", c.name, c.args, c.summary)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "global flags:")
	fs.PrintDefaults()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
