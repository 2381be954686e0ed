// Package mockapi is a development stand-in for the RouteNest REST API. It
// keeps trips, stops, routes, share links and itineraries in SQLite and
// serves every endpoint the client consumes, so the terminal client and the
// CLI can run end to end without the production backend.
package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/rtree"
	_ "modernc.org/sqlite"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Defaults for Options.
const (
	DefaultUserID    = "demo-user"
	DefaultPublicURL = "http://localhost:8000"
	DefaultShareTTL  = 7 * 24 * time.Hour
	// MemoryPath selects an in-memory database.
	MemoryPath = ":memory:"
)

// ErrClosed is returned by every Store method after Close.
var ErrClosed = errors.New("store is closed")

// Options configures a Store.
type Options struct {
	// Path is the database file. Empty or MemoryPath keeps everything in
	// memory.
	Path string
	// Router draws generated routes. Nil draws densified straight lines.
	Router    routing.Router
	Clock     clock.Clock
	Logger    *slog.Logger
	UserID    string
	PublicURL string
	ShareTTL  time.Duration
}

// Store is safe for concurrent use. Writes are serialized.
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	router    routing.Router
	clock     clock.Clock
	logger    *slog.Logger
	userID    string
	publicURL string
	shareTTL  time.Duration
	index     rtree.RTreeG[string]
	centroids map[string]types.LatLng
	closed    bool
}

// Open opens or creates the database, applies the schema and builds the
// location index.
func Open(ctx context.Context, opts Options) (*Store, error) {
	path := opts.Path
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:        db,
		router:    opts.Router,
		clock:     clock.Or(opts.Clock),
		logger:    logging.Or(opts.Logger),
		userID:    opts.UserID,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		shareTTL:  opts.ShareTTL,
		centroids: map[string]types.LatLng{},
	}
	if s.userID == "" {
		s.userID = DefaultUserID
	}
	if s.publicURL == "" {
		s.publicURL = DefaultPublicURL
	}
	if s.shareTTL <= 0 {
		s.shareTTL = DefaultShareTTL
	}
	if err := s.rebuildIndex(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Close releases the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// DB exposes the connection pool for metrics.
func (s *Store) DB() *sql.DB { return s.db }

// lock takes the write lock, failing once the store is closed.
func (s *Store) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// tx runs fn in a transaction under the write lock.
func (s *Store) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// read runs fn under the lock without a transaction.
func (s *Store) read(fn func() error) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return fn()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func invalid(err error) error {
	if errors.Is(err, types.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
}

// Time columns hold RFC 3339 text with nanoseconds, in UTC.

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeStrings(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
