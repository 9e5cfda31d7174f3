// Castor is a terminal client for Gemini, Gopher and Finger.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"castor/bookmarks"
	"castor/config"
	"castor/fetcher"
	"castor/finger"
	"castor/gemini"
	"castor/gopher"
	"castor/history"
	"castor/logging"
	"castor/navigator"
	"castor/opener"
	"castor/repl"
)

type flags struct {
	print      bool
	initConfig bool
	configPath string
}

func main() {
	var f flags
	cmd := &cobra.Command{
		Use:           "castor [url]",
		Short:         "Browse Gemini, Gopher and Finger from the terminal",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.initConfig {
				fmt.Fprint(cmd.OutOrStdout(), config.DefaultTOML())
				return nil
			}
			start := ""
			if len(args) > 0 {
				start = args[0]
			}
			return run(cmd.Context(), f, start)
		},
	}
	cmd.Flags().BoolVarP(&f.print, "print", "p", false, "fetch the address, print it and exit")
	cmd.Flags().BoolVar(&f.initConfig, "init-config", false, "print the default configuration and exit")
	cmd.Flags().StringVar(&f.configPath, "config", "", "configuration file (default ~/.config/castor/config.toml)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(ctx context.Context, f flags, start string) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.Setup(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return err
	}
	defer closer.Close()

	transport, err := fetcher.New(fetcher.Options{
		ConnectTimeout:       cfg.ConnectTimeout(),
		IdleTimeout:          cfg.IdleTimeout(),
		MaxBodyBytes:         cfg.Network.MaxBodyBytes,
		AcceptAnyCertificate: cfg.Network.AcceptAnyCertificate,
		Proxy:                cfg.Network.Proxy,
	}, logger)
	if err != nil {
		return err
	}

	nav := navigator.New(history.New(), map[string]navigator.Client{
		"gemini": gemini.NewClient(transport, logger),
		"gopher": gopher.NewClient(transport, cfg.SelectorRule(), logger),
		"finger": finger.NewClient(transport, logger),
	}, navigator.Options{MaxRedirects: cfg.Navigation.MaxRedirects, Logger: logger})

	marksPath, err := cfg.BookmarksPath()
	if err != nil {
		return fmt.Errorf("locating bookmarks: %w", err)
	}
	marks, err := bookmarks.Load(marksPath)
	if err != nil {
		return err
	}

	session := &repl.Session{
		Nav:       nav,
		Bookmarks: marks,
		Opener:    opener.New(logger),
		Config:    cfg,
		Out:       os.Stdout,
		Logger:    logger,
	}

	if start == "" {
		start = cfg.General.StartURL
	}
	if f.print {
		if start == "" {
			return errors.New("no address given")
		}
		return session.Handle(ctx, start)
	}
	return interactive(ctx, session, start, logger)
}

func interactive(ctx context.Context, session *repl.Session, start string, logger *slog.Logger) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if fh, err := os.Open(histPath); err == nil {
			if _, err := line.ReadHistory(fh); err != nil {
				logger.Debug("reading command history", "error", err)
			}
			fh.Close()
		}
	}

	err := session.Run(ctx, line, start)

	if histPath != "" {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o750); err == nil {
			if fh, err := os.Create(histPath); err == nil {
				if _, err := line.WriteHistory(fh); err != nil {
					logger.Debug("writing command history", "error", err)
				}
				fh.Close()
			}
		}
	}
	return err
}

// historyPath locates the command-line history. It holds typed commands,
// not visited pages.
func historyPath() string {
	p, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "command_history")
}
