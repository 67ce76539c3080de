package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"tgmonitor/config"
	"tgmonitor/logging"
	"tgmonitor/monitor"
	"tgmonitor/storage"
	"tgmonitor/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts config.LoadOptions

	flagSet := pflag.NewFlagSet("tgmonitor", pflag.ContinueOnError)
	flagSet.StringVar(&opts.DataDir, "data-dir", "", "directory holding the session, database and .env (default: per-user config dir)")
	flagSet.StringVar(&opts.EnvFile, "env-file", "", "load variables from this file before the default .env files")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	authMode := false
	switch args := flagSet.Args(); {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "auth":
		authMode = true
	default:
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	store, dbPath, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Database close failed", "err", err)
		}
	}()
	logger.Debug("Opened database", "path", dbPath)

	client := telegram.New(telegram.Options{
		APIID:             cfg.APIID,
		APIHash:           cfg.APIHash,
		SessionPath:       cfg.SessionPath(),
		SessionPassphrase: cfg.SessionPassphrase,
		Peers:             store,
		Log:               logger.With("component", "telegram"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if authMode {
		return runAuth(ctx, client)
	}
	return runDaemon(ctx, logger, cfg, store, client)
}

func runAuth(ctx context.Context, client *telegram.Client) error {
	prompt := telegram.NewPrompt(os.Stdin, os.Stdout)
	return client.Run(ctx, func(ctx context.Context) error {
		authorized, err := client.Authorize(ctx, prompt)
		if err != nil {
			return err
		}
		if authorized {
			fmt.Println("Authorization completed. Restart the program without the \"auth\" argument to start monitoring.")
		}
		return nil
	})
}

func runDaemon(ctx context.Context, logger *slog.Logger, cfg *config.Config, store *storage.Store, client *telegram.Client) error {
	m := monitor.New(store, client.Service(), logger, monitor.Options{
		RecordOutgoing: cfg.NotifyOutgoing,
		TTL:            cfg.TTL(),
		SweepInterval:  cfg.CleanInterval,
	})

	err := client.Run(ctx, func(ctx context.Context) error {
		if err := client.EnsureAuthorized(ctx); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return client.Listen(gctx) })
		g.Go(func() error { return m.Run(gctx, client.Events()) })
		return g.Wait()
	})

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tgmonitor watches your Telegram chats and reposts deleted messages
to Saved Messages.

Usage:
  tgmonitor [flags]        run the monitor
  tgmonitor [flags] auth   log in and store the session

Configuration is read from the environment and from .env files in the
working directory and the data directory.

Flags:
%s`, flagSet.FlagUsages())
}
