package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/config"
	"github.com/Veraticus/wallet-topups/internal/engine"
	"github.com/Veraticus/wallet-topups/internal/gmail"
	"github.com/Veraticus/wallet-topups/internal/llm"
	"github.com/Veraticus/wallet-topups/internal/monday"
	"github.com/Veraticus/wallet-topups/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath(viper.GetViper())

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app bundles the engine with the optional integrations it was built with.
type app struct {
	store     *storage.SQLiteStorage
	engine    *engine.Engine
	syncer    *monday.Syncer
	extractor *llm.Extractor
}

// Close releases the extractor and the database.
func (a *app) Close() {
	if a.extractor != nil {
		_ = a.extractor.Close()
	}
	_ = a.store.Close()
}

type appOptions struct {
	// gmail connects the mailbox and AI assist when configured.
	gmail bool
	// requireGmail fails instead of warning when the mailbox is not configured.
	requireGmail bool
	// sync starts mirroring to the board; only long-running commands drain it.
	sync bool
}

// buildApp wires storage, the engine and whichever integrations are configured.
func buildApp(ctx context.Context, opts appOptions) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}
	a := &app{store: store}
	logger := slog.Default()
	v := viper.GetViper()

	engineOpts := []engine.Option{engine.WithLogger(logger)}

	if opts.gmail {
		source, err := connectGmail(ctx, v, logger)
		switch {
		case err == nil:
			engineOpts = append(engineOpts, engine.WithMailSource(source))
		case opts.requireGmail:
			a.Close()
			return nil, err
		default:
			logger.Warn("Gmail is not configured; mailbox scanning disabled", "error", err)
		}

		extractor, err := newExtractor(v, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		if extractor != nil {
			a.extractor = extractor
			engineOpts = append(engineOpts, engine.WithExtractor(extractor))
		}
	}

	if opts.sync {
		apiURL := mondayAPIURL()
		a.syncer = monday.NewSyncer(store, func(token string) monday.BoardClient {
			if apiURL == "" {
				return monday.NewClient(token)
			}
			return monday.NewClient(token, monday.WithAPIURL(apiURL))
		}, logger, monday.DefaultSyncerOptions())
		engineOpts = append(engineOpts, engine.WithSyncer(a.syncer))
	}

	a.engine = engine.New(store, engineOpts...)
	return a, nil
}

// newExtractor returns nil when AI assist is not configured.
func newExtractor(v config.Getter, logger *slog.Logger) (*llm.Extractor, error) {
	cfg, err := config.LoadLLMConfig(v)
	if errors.Is(err, common.ErrMissingConfig) {
		logger.Debug("AI parsing assist not configured")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	extractor, err := llm.NewExtractor(*cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI extractor: %w", err)
	}
	return extractor, nil
}

func connectGmail(ctx context.Context, v config.Getter, logger *slog.Logger) (*gmail.Client, error) {
	cfg, err := config.LoadGmailConfig(v)
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(ctx, *cfg, logger)
}

func mondayAPIURL() string {
	return viper.GetString("monday.api_url")
}

// adminName is recorded as the reviewer for CLI actions.
func adminName() string {
	if name := viper.GetString("cli.admin"); name != "" {
		return name
	}
	return "cli"
}
