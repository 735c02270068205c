// Package session holds the in-memory task collection for one window of the
// program and keeps it in step with the persisted copy.
//
// Every change goes through Apply, which runs the mutation engine, issues a
// single write-through, and recomputes the derived sections and badge. Writes
// made by other sessions arrive as storage changes and replace the in-memory
// state wholesale; the last writer wins.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"todopop/internal/badge"
	"todopop/internal/storage"
	"todopop/internal/todo"
)

// Key is the storage key holding the task document.
const Key = "todos"

// Bridge is the persistence the session reads and writes through.
type Bridge interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, origin string) <-chan error
	Subscribe(key string) (<-chan storage.Change, func())
}

type Options struct {
	Mode       todo.Mode
	Now        func() time.Time
	IDs        todo.IDSource
	Notifier   badge.Notifier
	BadgeColor string
	Log        *slog.Logger
}

type Session struct {
	bridge   Bridge
	engine   todo.Engine
	migrator todo.Migrator
	origin   string
	notifier badge.Notifier
	color    string
	log      *slog.Logger

	mu       sync.Mutex
	todos    todo.Collection
	sections []todo.Section

	updates chan struct{}
	cancel  func()
	pump    sync.WaitGroup
	pending sync.WaitGroup
	once    sync.Once
}

// Open loads the stored collection, migrates it to the current schema, and
// writes the migrated form back when migration changed anything. It then
// follows changes made elsewhere until Close.
func Open(ctx context.Context, bridge Bridge, opts Options) (*Session, error) {
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("invalid mode %q", opts.Mode)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ids := opts.IDs
	if ids == nil {
		ids = todo.UUIDSource{}
	}
	s := &Session{
		bridge:   bridge,
		engine:   todo.Engine{Mode: opts.Mode, Now: now, IDs: ids},
		migrator: todo.Migrator{Now: now, IDs: ids},
		origin:   uuid.NewString(),
		notifier: opts.Notifier,
		color:    opts.BadgeColor,
		log:      opts.Log,
		updates:  make(chan struct{}, 1),
	}
	if s.notifier == nil {
		s.notifier = badge.Discard
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	raw, found, err := bridge.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	todos, changed, err := s.decode(raw)
	if err != nil {
		return nil, err
	}
	if s.engine.Mode == todo.ModePriority {
		sorted := todo.SortByPriority(todos)
		if !sorted.Equal(todos) {
			todos, changed = sorted, true
		}
	}
	if found && changed {
		s.log.Info("migrated stored todos", "version", todo.CurrentVersion, "count", len(todos))
		out, err := todo.Encode(todos)
		if err != nil {
			return nil, err
		}
		if err := <-bridge.Set(ctx, Key, out, s.origin); err != nil {
			return nil, fmt.Errorf("save migrated todos: %w", err)
		}
	}

	s.todos = todos
	s.recompute()
	s.notify(ctx, s.Badge())

	ch, cancel := bridge.Subscribe(Key)
	s.cancel = cancel
	s.pump.Add(1)
	go func() {
		defer s.pump.Done()
		for c := range ch {
			s.HandleChange(context.Background(), c)
		}
	}()
	return s, nil
}

func (s *Session) decode(raw []byte) (todo.Collection, bool, error) {
	doc, err := todo.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	todos, changed, err := s.migrator.Migrate(doc)
	if err != nil {
		return nil, false, err
	}
	return todos, changed, nil
}

// Apply runs in against the current collection. When the result differs it
// is stored in memory, written through once, and the badge is republished.
// Write failures are logged; the in-memory state is kept either way.
func (s *Session) Apply(ctx context.Context, in todo.Intent) bool {
	s.mu.Lock()
	next, changed := s.engine.Apply(s.todos, in)
	if !changed {
		s.mu.Unlock()
		return false
	}
	raw, err := todo.Encode(next)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("encode todos", "err", err)
		return false
	}
	s.todos = next
	s.recompute()
	// Set is called under the lock so writes queue in the order they were
	// applied.
	done := s.bridge.Set(ctx, Key, raw, s.origin)
	b := badge.For(s.todos.IncompleteCount(), s.color)
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := <-done; err != nil {
			s.log.Error("persist todos", "intent", fmt.Sprintf("%T", in), "err", err)
		}
	}()
	s.notify(ctx, b)
	return true
}

// HandleChange replaces the in-memory collection with a value written by
// someone else. Changes carrying this session's origin are echoes of its own
// writes and are ignored. It reports whether the state changed.
func (s *Session) HandleChange(ctx context.Context, c storage.Change) bool {
	if c.Key != Key || c.Origin == s.origin {
		return false
	}
	todos, _, err := s.decode(c.Value)
	if err != nil {
		s.log.Warn("ignoring unreadable change", "origin", c.Origin, "err", err)
		return false
	}
	if s.engine.Mode == todo.ModePriority {
		todos = todo.SortByPriority(todos)
	}

	s.mu.Lock()
	if todos.Equal(s.todos) {
		s.mu.Unlock()
		return false
	}
	s.todos = todos
	s.recompute()
	b := badge.For(s.todos.IncompleteCount(), s.color)
	s.mu.Unlock()

	s.log.Debug("reloaded todos", "origin", c.Origin, "count", len(todos))
	s.notify(ctx, b)
	select {
	case s.updates <- struct{}{}:
	default:
	}
	return true
}

// Updates signals after the collection was replaced by a change from
// elsewhere. Signals coalesce.
func (s *Session) Updates() <-chan struct{} { return s.updates }

// recompute must be called with mu held.
func (s *Session) recompute() {
	s.sections = todo.Sections(s.engine.Mode, s.todos)
}

func (s *Session) notify(ctx context.Context, b badge.Badge) {
	if err := s.notifier.Notify(ctx, b); err != nil {
		s.log.Warn("publish badge", "err", err)
	}
}

// Close stops following changes and waits for outstanding writes.
func (s *Session) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.pump.Wait()
		s.pending.Wait()
	})
	return nil
}

// Origin identifies this session's writes.
func (s *Session) Origin() string { return s.origin }

func (s *Session) Mode() todo.Mode { return s.engine.Mode }

// Todos returns a copy of the stored collection.
func (s *Session) Todos() todo.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todos.Clone()
}

// Sections returns the display sections. They are rebuilt on every change,
// so callers may hold on to them but must not modify them.
func (s *Session) Sections() []todo.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sections
}

// Display returns the tasks in on-screen order.
func (s *Session) Display() []todo.Task {
	return todo.Flatten(s.Sections())
}

// Resolve finds a task by display position, id, or id prefix.
func (s *Session) Resolve(ref string) (todo.Task, error) {
	return todo.Resolve(s.Display(), ref)
}

func (s *Session) IncompleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todos.IncompleteCount()
}

// Badge returns the badge for the current collection.
func (s *Session) Badge() badge.Badge {
	return badge.For(s.IncompleteCount(), s.color)
}
