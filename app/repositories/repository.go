package repositories

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Store owns the badger handle shared by the badger repositories.
type Store struct {
	db     *badger.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logger}).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", path, err)
	}
	return &Store{db: db, path: path, logger: logger}, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: slog.Default()}, nil
}

// DB exposes the raw handle.
func (s *Store) DB() *badger.DB { return s.db }

// Path is the on-disk location, empty for in-memory stores.
func (s *Store) Path() string { return s.path }

// Posts returns a post repository over the store.
func (s *Store) Posts() *BadgerPostRepository { return NewBadgerPostRepository(s.db) }

// Reviews returns a review repository over the store.
func (s *Store) Reviews() *BadgerReviewRepository { return NewBadgerReviewRepository(s.db) }

// Ping checks the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger: database closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Clear drops every key, sequences included.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

// Backup writes a full backup to w.
func (s *Store) Backup(w io.Writer) error {
	_, err := s.db.Backup(w, 0)
	return err
}

// Restore loads a backup produced by Backup.
func (s *Store) Restore(r io.Reader) error {
	return s.db.Load(r, 4)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's own logging through slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
