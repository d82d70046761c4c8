package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/lexrope/internal/config"
	"github.com/dshills/lexrope/internal/document"
	"github.com/dshills/lexrope/internal/logging"
	"github.com/dshills/lexrope/internal/syntax/lexer"
)

// app holds what every subcommand needs once flags and config are read.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	log      *logging.Logger
	registry *lexer.Registry
	color    bool

	logFile *os.File
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "lexrope",
		Short:         "Incremental lexing on a persistent token rope",
		Long:          `lexrope lexes source files into a persistent token rope and keeps it up to date under edits by relexing only what changed.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to configuration file (default $XDG_CONFIG_HOME/lexrope/config.toml)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("color", "", "colorize output (auto|on|off)")
	pf.String("lang", "", "language to use instead of detecting it from the file extension")

	root.AddCommand(
		newLexCmd(a),
		newEditCmd(a),
		newWatchCmd(a),
		newInspectCmd(a),
		newLanguagesCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and prepares logging
// and the language registry.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("color") {
		cfg.Output.Color, _ = flags.GetString("color")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	out := a.stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		out = f
	}
	a.log = logging.New(logging.Config{Level: cfg.LogLevel(), Output: out, Prefix: "lexrope"})

	a.color = colorEnabled(cfg.Output.Color, a.stdout)

	a.registry = lexer.DefaultRegistry()
	if cfg.Lexer.Dir != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Lexer.Timeout.Duration)
		defer cancel()
		n, err := a.registry.LoadDir(ctx, cfg.Lexer.Dir)
		if err != nil {
			return fmt.Errorf("load languages: %w", err)
		}
		a.log.Debug("loaded %d language definitions from %s", n, cfg.Lexer.Dir)
	}
	return nil
}

func (a *app) close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

// colorEnabled resolves a color mode against the output writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// lexerFor picks the lexer for path: the --lang flag, then the file
// extension, then the configured default language.
func (a *app) lexerFor(cmd *cobra.Command, path string) (*lexer.Lexer, error) {
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		return a.registry.ByName(lang)
	}
	lx, err := a.registry.ForPath(path)
	if err == nil {
		return lx, nil
	}
	if errors.Is(err, lexer.ErrUnknownLanguage) && a.cfg.Lexer.Default != "" {
		a.log.Debug("%v, using %s", err, a.cfg.Lexer.Default)
		return a.registry.ByName(a.cfg.Lexer.Default)
	}
	return nil, err
}

// openDocument reads path ("-" for stdin) and lexes it.
func (a *app) openDocument(cmd *cobra.Command, path string) (*document.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	lx, err := a.lexerFor(cmd, path)
	if err != nil {
		return nil, err
	}
	return document.New(lx, string(data),
		document.WithName(path),
		document.WithShape(a.cfg.Shape()),
		document.WithLogger(a.log),
	)
}
