package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/jainscan/internal/config"
	"github.com/example/jainscan/internal/notify"
	"github.com/example/jainscan/internal/theme"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	config       *config.Config
	configPath   string
	notifier     *notify.Notifier
	log          *logrus.Logger
	stdout       io.Writer
	stderr       io.Writer
	getenv       func(string) string
	themeName    string
	logLevel     string
	resultAlerts bool
	saveAlerts   bool
	copyAlerts   bool
	activeTheme  *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) *root {
	child := *r
	child.fs = nil
	child.program = strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &child
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("jainscan", flag.ExitOnError),
		program: "jainscan",
		log:     logrus.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
	}
	r.log.SetOutput(os.Stderr)
	defaults := config.New()
	r.fs.StringVar(&r.configPath, "config", "", "path to the configuration file")
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, high_contrast)")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level: debug, info, warn or error")
	r.fs.BoolVar(&r.resultAlerts, "notify-result", defaults.Notify.Result, "show a desktop notification with the scan verdict")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", defaults.Notify.Save, "show a desktop notification after saving a crop")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", defaults.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.Usage = usageFunc(r)
	return r
}

// setFlags returns the names of flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// configure loads the configuration and applies, in increasing precedence,
// the environment and the command line.
func (r *root) configure() error {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	if err != nil {
		if r.configPath != "" {
			return fmt.Errorf("load config: %w", err)
		}
		r.log.WithError(err).Warn("failed to load config, using defaults")
		cfg = config.New()
	}
	cfg.ApplyEnv(r.getenv)

	set := setFlags(r.fs)
	if r.themeName != "" {
		cfg.Theme = r.themeName
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	if set["notify-result"] {
		cfg.Notify.Result = r.resultAlerts
	}
	if set["notify-save"] {
		cfg.Notify.Save = r.saveAlerts
	}
	if set["notify-copy"] {
		cfg.Notify.Copy = r.copyAlerts
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	r.log.SetLevel(level)
	r.config = cfg

	r.notifier = notify.New(notify.LoadPreferences(r.getenv), r.log)
	r.notifier.Enable(notify.EventResult, cfg.Notify.Result)
	r.notifier.Enable(notify.EventSave, cfg.Notify.Save)
	r.notifier.Enable(notify.EventCopy, cfg.Notify.Copy)

	r.activeTheme = r.resolveTheme(cfg.Theme)
	return nil
}

// resolveTheme prefers themes defined in the config file, then the theme
// loader's file, embedded and system locations.
func (r *root) resolveTheme(name string) *theme.Theme {
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && !strings.EqualFold(name, "default") {
			r.log.WithError(err).WithField("theme", name).Warn("failed to load theme, using default")
		}
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	if cmdName == "help" {
		return &UsageError{of: r}
	}
	if cmdName != "version" {
		if err := r.configure(); err != nil {
			return err
		}
	}

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "crop":
		cmd, err = parseCropCmd(subArgs, r)
	case "scan":
		cmd, err = parseScanCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
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

func (r *root) notifyResult(headline string, label image.Image, urgent bool) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Result(headline, label, urgent)
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
