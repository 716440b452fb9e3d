package offload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Registered database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverCgo     = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the database in
	// process and limits the pool to one connection.
	Path string

	// Driver is DriverModernc or DriverCgo.
	// Default: "sqlite"
	Driver string

	// URIScheme prefixes returned handles.
	// Default: "callisto"
	URIScheme string

	// Compress stores payloads zstd-compressed.
	Compress bool

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int
}

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	codec  *codec
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	stmts map[string]*sql.Stmt
}

// NewSQLiteStore opens the database, creates the schema and prepares the
// statements used by the store.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, NewStorageError("sqlite", "open", errors.New("path cannot be empty"))
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverCgo {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}
	if cfg.URIScheme == "" {
		cfg.URIScheme = "callisto"
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "offload.sqlite")

	inMemory := cfg.Path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStorageError("sqlite", "mkdir", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
		stmts:  make(map[string]*sql.Stmt),
	}

	if cfg.Compress {
		c, err := newCodec()
		if err != nil {
			db.Close()
			return nil, NewStorageError("sqlite", "init_codec", err)
		}
		s.codec = c
	}

	if err := s.initialize(inMemory); err != nil {
		s.codec.close()
		db.Close()
		return nil, err
	}

	logger.Info("SQLite offload store initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode && !inMemory,
		"compress", cfg.Compress,
	)

	return s, nil
}

// dsn encodes the busy timeout in the form each driver understands so that
// every pooled connection gets it.
func dsn(cfg SQLiteConfig) string {
	ms := cfg.BusyTimeout.Milliseconds()
	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	if cfg.Driver == DriverCgo {
		return fmt.Sprintf("%s%s_busy_timeout=%d", cfg.Path, sep, ms)
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", cfg.Path, sep, ms)
}

func (s *SQLiteStore) initialize(inMemory bool) error {
	if s.config.WALMode && !inMemory {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(getSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	for name, query := range map[string]string{
		"insert": insertResource,
		"select": selectResource,
		"delete": deleteResource,
		"prune":  pruneResources,
	} {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return NewStorageError("sqlite", "prepare_"+name, err)
		}
		s.stmts[name] = stmt
	}

	return nil
}

func (s *SQLiteStore) stmt(name string) (*sql.Stmt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stmt, ok := s.stmts[name]
	if !ok {
		return nil, ErrClosed
	}
	return stmt, nil
}

// Persist stores res, replacing any resource with the same ID.
func (s *SQLiteStore) Persist(ctx context.Context, res *Resource) (string, error) {
	stored, err := prepare(res, s.config.URIScheme, s.now)
	if err != nil {
		return "", err
	}

	stmt, err := s.stmt("insert")
	if err != nil {
		return "", NewStorageError("sqlite", "persist", err)
	}

	data, encoding := s.codec.encode(stored.Data)

	var tool any
	if stored.Tool != "" {
		tool = stored.Tool
	}

	_, err = stmt.ExecContext(ctx,
		stored.ID, stored.URI, tool, stored.ContentType, encoding,
		stored.Size, data, stored.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", NewStorageError("sqlite", "persist", err)
	}

	s.logger.Debug("resource persisted",
		"id", stored.ID,
		"size", stored.Size,
		"stored_bytes", len(data),
		"encoding", encoding,
	)

	return stored.URI, nil
}

// Retrieve loads and decodes the resource for handle.
func (s *SQLiteStore) Retrieve(ctx context.Context, handle string) (*Resource, error) {
	id, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}

	stmt, err := s.stmt("select")
	if err != nil {
		return nil, NewStorageError("sqlite", "retrieve", err)
	}

	var (
		res       Resource
		tool      sql.NullString
		encoding  string
		data      []byte
		createdAt int64
	)
	err = stmt.QueryRowContext(ctx, id).Scan(
		&res.ID, &res.URI, &tool, &res.ContentType, &encoding, &res.Size, &data, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError("sqlite", "retrieve", err)
	}

	res.Tool = tool.String
	res.CreatedAt = time.Unix(0, createdAt).UTC()
	res.Data, err = s.codec.decode(data, encoding)
	if err != nil {
		return nil, NewStorageError("sqlite", "decode", err)
	}

	return &res, nil
}

// Delete removes the resource for handle.
func (s *SQLiteStore) Delete(ctx context.Context, handle string) error {
	id, err := ParseHandle(handle)
	if err != nil {
		return err
	}

	stmt, err := s.stmt("delete")
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune removes resources created before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	stmt, err := s.stmt("prune")
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}

	result, err := stmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}
	return deleted, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases prepared statements, the codec and the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	s.stmts = make(map[string]*sql.Stmt)
	s.mu.Unlock()

	s.codec.close()

	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite offload store closed")
	return nil
}
