// Package storage is a small key/value store on SQLite that reports every
// committed change to subscribers, including changes made by other processes
// sharing the same database file.
package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "modernc.org/sqlite"
)

// OriginExternal marks changes that were detected on disk rather than written
// through this Store.
const OriginExternal = "external"

// DefaultDebounce is how long the watcher waits for file events to settle.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned for operations on a closed Store.
var ErrClosed = errors.New("storage: closed")

// Change describes a committed value.
type Change struct {
	Key    string
	Value  []byte
	Origin string
}

type writeReq struct {
	ctx    context.Context
	key    string
	value  []byte
	origin string
	done   chan error
}

type Store struct {
	db       *sql.DB
	path     string
	log      *slog.Logger
	watch    bool
	debounce time.Duration

	sendMu sync.RWMutex
	closed bool
	writes chan writeReq

	// ioMu orders a commit against the watcher's re-read so our own writes
	// are never reported as external.
	ioMu  sync.Mutex
	known map[string][]byte

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}

	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
}

type Option func(*Store)

// WithLogger sets the logger for background failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithWatch enables or disables cross-process change detection.
func WithWatch(on bool) Option {
	return func(s *Store) { s.watch = on }
}

// WithDebounce sets the settle time for file events.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// Open opens or creates the database at dbPath. Watching is on by default.
func Open(dbPath string, opts ...Option) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:       db,
		path:     dbPath,
		log:      slog.Default(),
		watch:    true,
		debounce: DefaultDebounce,
		writes:   make(chan writeReq, 64),
		known:    make(map[string][]byte),
		subs:     make(map[string]map[*subscriber]struct{}),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if s.watch {
		if err := s.startWatcher(); err != nil {
			db.Close()
			return nil, fmt.Errorf("watch %s: %w", filepath.Dir(dbPath), err)
		}
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

// Close stops the writer after draining queued writes, stops watching, and
// closes every subscription.
func (s *Store) Close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.writes)
	s.sendMu.Unlock()

	close(s.stop)
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	for key, set := range s.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(s.subs, key)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureColumns()
}

func (s *Store) ensureColumns() error {
	required := map[string]string{
		"origin":     "ALTER TABLE kv ADD COLUMN origin TEXT NOT NULL DEFAULT '';",
		"updated_at": "ALTER TABLE kv ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(kv);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.isClosed() {
		return nil, false, ErrClosed
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set queues a write and returns a channel that receives its result once
// committed. Writes are applied in call order. origin is passed through to
// subscribers so writers can recognise their own changes.
func (s *Store) Set(ctx context.Context, key string, value []byte, origin string) <-chan error {
	done := make(chan error, 1)
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		done <- ErrClosed
		close(done)
		return done
	}
	s.writes <- writeReq{ctx: ctx, key: key, value: bytes.Clone(value), origin: origin, done: done}
	return done
}

func (s *Store) writer() {
	defer s.wg.Done()
	for req := range s.writes {
		req.done <- s.commit(req)
		close(req.done)
	}
}

// commit runs detached from the caller's cancellation: a write accepted by Set
// is always committed, including the ones Close drains.
func (s *Store) commit(req writeReq) error {
	ctx := context.WithoutCancel(req.ctx)
	s.ioMu.Lock()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, origin, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, origin = excluded.origin, updated_at = excluded.updated_at;`,
		req.key, req.value, req.origin, now)
	if err == nil {
		s.known[req.key] = req.value
	}
	s.ioMu.Unlock()
	if err != nil {
		return fmt.Errorf("set %q: %w", req.key, err)
	}
	s.broadcast(Change{Key: req.key, Value: req.value, Origin: req.origin})
	return nil
}

func (s *Store) isClosed() bool {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	return s.closed
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
