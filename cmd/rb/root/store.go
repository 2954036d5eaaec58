package root

import (
	"context"
	"io"
	"log/slog"

	"github.com/claude/repbuddy/internal/config"
	"github.com/claude/repbuddy/internal/storage"
)

// quietLog discards library logging so command output stays clean.
var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func openStore(ctx context.Context) (*storage.Store, *config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	dsn := cfg.StoreDSN()
	if err := storage.RunMigrations(cfg.Storage.Driver, dsn); err != nil {
		return nil, nil, nil, err
	}
	kv, err := storage.Open(ctx, cfg.Storage.Driver, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	store := storage.NewStore(kv)
	cleanup := func() {
		_ = store.Close()
	}
	return store, cfg, cleanup, nil
}
