package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/capture"
	"github.com/example/retouch/internal/client"
	"github.com/example/retouch/internal/clipboard"
	"github.com/example/retouch/internal/compose"
	"github.com/example/retouch/internal/config"
	"github.com/example/retouch/internal/drawing"
	"github.com/example/retouch/internal/notify"
	"github.com/example/retouch/internal/render"
	"github.com/example/retouch/internal/session"
	"github.com/example/retouch/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs        *flag.FlagSet
	program   string
	config    *config.Config
	notifier  *notify.Notifier
	recorder  *notify.Recorder
	themeName string
	theme     *theme.Theme
}

func (r *root) Program() string { return r.program }

func (r *root) FlagSet() *flag.FlagSet { return r.fs }

func (r *root) Template() string { return "root.txt" }

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	return newRootWith(cfg)
}

func newRootWith(cfg *config.Config) *root {
	prefs := notify.LoadPreferences(notify.Preferences{Title: cfg.Notify.Title, Desktop: cfg.Notify.Desktop})
	notifier := notify.New(prefs)
	r := &root{
		fs:       flag.NewFlagSet("retouch", flag.ExitOnError),
		program:  "retouch",
		config:   cfg,
		notifier: notifier,
		recorder: notify.NewRecorder(notifier),
	}
	r.fs.StringVar(&r.themeName, "theme", "", "viewer colour theme ("+strings.Join(cfg.ThemeNames(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	// Precedence: flag > RETOUCH_THEME > config > default.
	name := r.themeName
	if name == "" {
		name = r.config.Theme
	}
	t, err := r.config.ResolveTheme(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v. using default.\n", err)
		t = theme.Default()
	}
	r.theme = t

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "apply":
		cmd, err = parseApplyCmd(subArgs, r)
	case "list":
		cmd, err = parseListCmd(subArgs, r)
	case "delete":
		cmd, err = parseDeleteCmd(subArgs, r)
	case "fetch":
		cmd, err = parseFetchCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// client returns an upload client for override, falling back to the
// configured server.
func (r *root) client(override string) *client.Client {
	u := override
	if u == "" {
		u = r.config.Client.ServerURL
	}
	return client.New(u)
}

// sessionOptions builds editing defaults from the configuration.
func (r *root) sessionOptions(remote session.Remote) (session.Options, error) {
	ed := r.config.Editor
	opts := session.Options{
		Remote:      remote,
		Clipboard:   clipboard.System{},
		Sink:        r.recorder,
		Capture:     capture.Screen,
		Compose:     compose.Options{JPEGQuality: ed.JPEGQuality},
		StrokeWidth: ed.StrokeWidth,
	}
	if ed.StrokeColor != "" {
		c, err := drawing.ParseColor(ed.StrokeColor)
		if err != nil {
			return opts, fmt.Errorf("editor stroke colour: %w", err)
		}
		opts.StrokeColor = c
	}
	if ed.Interpolator != "" {
		interp, ok := render.Interpolator(ed.Interpolator)
		if !ok {
			return opts, fmt.Errorf("unknown interpolator %q", ed.Interpolator)
		}
		opts.Render.Interpolator = interp
	}
	if ed.Background != "" {
		c, err := drawing.ParseColor(ed.Background)
		if err != nil {
			return opts, fmt.Errorf("editor background: %w", err)
		}
		opts.Render.Background = c
	}
	return opts, nil
}

func setLogLevel(name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := setLogLevel(os.Getenv("RETOUCH_LOG_LEVEL")); err != nil {
		logrus.SetLevel(logrus.WarnLevel)
	}

	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
