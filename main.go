// Command richdoc is a console rich-text document editor with literal find and replace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"richdoc/src/autosave"
	"richdoc/src/cli"
	"richdoc/src/config"
	"richdoc/src/convert"
	"richdoc/src/events"
	"richdoc/src/logging"
	"richdoc/src/spellcheck"
	"richdoc/src/workspace"
)

const defaultConfigFile = ".richdoc.toml"

// CLI defines the command-line flags.
type CLI struct {
	Dir       string `name:"dir" short:"d" help:"Workspace directory" type:"path" default:"."`
	Config    string `name:"config" short:"c" help:"Configuration file (default <dir>/.richdoc.toml)" type:"path"`
	LogLevel  string `name:"log-level" help:"Diagnostic log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Diagnostic log format (text, json)"`
}

func main() {
	var opts CLI
	ctx := kong.Parse(&opts,
		kong.Name("richdoc"),
		kong.Description("Edit HTML, Markdown and text documents from the console."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(&opts))
}

func run(opts *CLI) error {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return err
	}
	cfgPath := opts.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, defaultConfigFile)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.InitLogger(level, logging.Format(strings.ToLower(cfg.Log.Format)), os.Stderr)

	console := cli.NewConsole(os.Stdin, os.Stdout)
	bus := events.NewBus()
	logger := logging.NewManager()
	bus.Subscribe(logger)
	keeper := workspace.NewStateKeeper(dir)
	ws := workspace.NewWorkspace(dir, bus, keeper, logger, console)
	ws.SetExportOptions(convert.Options{
		WrapWidth: cfg.Export.WrapWidth,
		PageLines: cfg.Export.PageLines,
		Compress:  cfg.Export.Compress,
	})
	checker, ok := spellcheck.NewChecker(cfg.SpellCheck.Checker)
	if !ok {
		return fmt.Errorf("unknown spell checker: %s", cfg.SpellCheck.Checker)
	}
	ws.SetSpellService(spellcheck.NewService(checker))

	if cfg.Autosave.Enabled {
		dbPath := cfg.Autosave.Database
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(dir, dbPath)
		}
		store, err := autosave.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open autosave store: %w", err)
		}
		defer store.Close()
		saver := autosave.NewAutosaver(store, cfg.Autosave.Key, cfg.Autosave.Delay())
		defer func() {
			if err := saver.Flush(context.Background()); err != nil {
				slog.Warn("final autosave failed", "error", err)
			}
			saver.Stop()
		}()
		bus.Subscribe(saver)
		ws.SetAutosave(saver)
		slog.Debug("autosave enabled", "database", dbPath, "key", saver.Key(), "delay", cfg.Autosave.Delay())
	}

	if err := ws.Restore(); err != nil {
		slog.Warn("restore workspace failed", "error", err)
	}
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cli.NewDispatcher(ws, console, logger).Run(sigCtx)
	return nil
}
