package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Config selects and configures the snapshot store backend
type Config struct {
	Kind       string `env:"SNAPSHOT_STORE" default:"file"`
	Dir        string `env:"SNAPSHOT_DIR" default:"./snapshots"`
	SqlitePath string `env:"SQLITE_PATH" default:"./overlay.db"`
}

// Backend is an open Store along with whatever housekeeping its implementation
// supports: Close releases its resources, and Ping reports whether it's reachable
type Backend struct {
	Store
	Kind Kind
}

// Open initializes the Store selected by config. Postgres and S3 backends are
// configured from pg and spaces respectively, and those configs are ignored otherwise.
func Open(ctx context.Context, config Config, pg PostgresConfig, spaces SpacesConfig) (*Backend, error) {
	kind, err := ParseKind(config.Kind)
	if err != nil {
		return nil, err
	}
	var s Store
	switch kind {
	case KindFile:
		s, err = NewFileStore(config.Dir)
	case KindSqlite:
		s, err = OpenSqlite(config.SqlitePath)
	case KindPostgres:
		s, err = OpenPostgres(ctx, pg)
	case KindS3:
		s, err = NewS3Store(spaces)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s snapshot store: %w", kind, err)
	}
	return &Backend{Store: s, Kind: kind}, nil
}

// Close closes the underlying store if it holds any resources
func (b *Backend) Close() error {
	if c, ok := b.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ping returns an error if the underlying store is known to be unreachable
func (b *Backend) Ping() error {
	if p, ok := b.Store.(interface{ Ping() error }); ok {
		return p.Ping()
	}
	return nil
}

// Watch calls onChange when a snapshot is modified by another process, for backends
// that can detect that; for all others it blocks until the context is canceled
func (b *Backend) Watch(ctx context.Context, logger *slog.Logger, onChange func(key string)) error {
	if fs, ok := b.Store.(*FileStore); ok {
		return fs.Watch(ctx, logger, onChange)
	}
	logger.Info("snapshot store does not support change notifications", "kind", b.Kind)
	<-ctx.Done()
	return nil
}
