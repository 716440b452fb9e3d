package offload

import (
	"fmt"
	"log/slog"

	"mercator-hq/callisto/pkg/config"
)

// Open builds the store selected by cfg.Backend.
func Open(cfg *config.OffloadConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.URIScheme), nil
	case "sqlite":
		return NewSQLiteStore(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			Driver:      cfg.SQLite.Driver,
			URIScheme:   cfg.URIScheme,
			Compress:    cfg.Compress,
			WALMode:     cfg.SQLite.WALMode,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown offload backend %q", cfg.Backend)
	}
}
