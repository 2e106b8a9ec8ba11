package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustycl0ck/go-wispr/config"
	"github.com/rustycl0ck/go-wispr/store"
	"github.com/rustycl0ck/go-wispr/wispr"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

type options struct {
	username   string
	password   string
	detect     bool
	logout     bool
	configFile string
	logFormat  string
	logLevel   string
	logFile    string
	timeout    time.Duration
	probeURL   string
	verifyTLS  bool
}

func newApp(opts *options) *kingpin.Application {
	app := kingpin.New("wispr", "WISPr hotspot login client.")
	app.HelpFlag.Short('h')
	app.Arg("username", "account user name").StringVar(&opts.username)
	app.Arg("password", "account password").StringVar(&opts.password)
	app.Flag("detect", "only detect WISPr support").Short('D').BoolVar(&opts.detect)
	app.Flag("logout", "log off the current session").Short('L').BoolVar(&opts.logout)
	app.Flag("config", "YAML configuration file").Short('c').Envar("WISPR_CONFIG").StringVar(&opts.configFile)
	app.Flag("log-format", "log format").EnumVar(&opts.logFormat, "json", "logfmt")
	app.Flag("log-level", "log level [WARNING: 'debug' level prints gateway session URLs]").EnumVar(&opts.logLevel, "info", "warn", "error", "debug", "none")
	app.Flag("log-file", "also write logs to this file, rotated").StringVar(&opts.logFile)
	app.Flag("timeout", "per request timeout").DurationVar(&opts.timeout)
	app.Flag("probe-url", "URL requested to provoke the captive portal").StringVar(&opts.probeURL)
	app.Flag("verify-tls", "verify gateway TLS certificates").BoolVar(&opts.verifyTLS)
	return app
}

// loadConfig reads the configuration file and applies the flags given on the
// command line over it.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.timeout != 0 {
		cfg.Timeout = opts.timeout
	}
	if opts.probeURL != "" {
		cfg.ProbeURL = opts.probeURL
	}
	if opts.verifyTLS {
		cfg.InsecureSkipVerify = false
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg config.Log) log.Logger {
	var logger log.Logger
	if cfg.Format == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}

	switch cfg.Level {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "none":
		logger = level.NewFilter(logger, level.AllowNone())
	}
	return logger
}

func logWriter(stderr io.Writer, cfg config.Log) io.Writer {
	if cfg.File == "" {
		return stderr
	}
	return io.MultiWriter(stderr, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}

func newClient(cfg *config.Config, logger log.Logger) (*wispr.Client, error) {
	transport, err := wispr.NewHTTPTransport(
		wispr.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		wispr.WithTimeout(cfg.Timeout),
		wispr.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return nil, err
	}
	var s *store.FileStore
	if cfg.StateDir != "" {
		s = store.NewFileStore(cfg.StateDir)
	} else if s, err = store.NewHomeStore(); err != nil {
		return nil, err
	}
	return wispr.NewClient(
		wispr.WithTransport(transport),
		wispr.WithStore(s),
		wispr.WithLogger(logger),
		wispr.WithProbe(cfg.ProbeURL, cfg.ProbeDomain),
	)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer, build func(*config.Config, log.Logger) (*wispr.Client, error)) int {
	opts := &options{}
	app := newApp(opts)
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "wispr: %s\n", err)
		return exitUsage
	}
	if !opts.detect && !opts.logout && opts.password == "" {
		fmt.Fprintln(stderr, "You must provide a username and password")
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "wispr: %s\n", err)
		return exitUsage
	}
	logger := newLogger(logWriter(stderr, cfg.Log), cfg.Log)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "run", uuid.NewString())

	client, err := build(cfg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "could not set up client", "err", err)
		return exitFail
	}

	ok, err := dispatch(ctx, client, opts, logger)
	switch {
	case errors.Is(err, context.Canceled):
		level.Error(logger).Log("msg", "aborting")
		return exitFail
	case errors.Is(err, wispr.ErrNoLogoffURL):
		level.Error(logger).Log("msg", err.Error())
		return exitFail
	case err != nil:
		level.Error(logger).Log("msg", "wispr failed", "err", err)
		return exitFail
	case !ok:
		return exitFail
	}
	return exitOK
}

func dispatch(ctx context.Context, client *wispr.Client, opts *options, logger log.Logger) (bool, error) {
	switch {
	case opts.detect:
		d, err := client.Detect(ctx)
		return d.Found, err
	case opts.logout:
		return true, client.Logoff(ctx)
	}
	res, err := client.Login(ctx, opts.username, opts.password)
	if err != nil {
		return false, err
	}
	level.Debug(logger).Log("msg", "login finished", "status", res.Status)
	return res.OK(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr, newClient)
	stop()
	os.Exit(code)
}
