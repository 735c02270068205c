package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatcher watches the database directory. SQLite rewrites the main file
// and its -journal/-wal siblings, so any event on a name sharing the
// database's base name schedules a re-read.
func (s *Store) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.wg.Add(1)
	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	defer s.wg.Done()
	base := filepath.Base(s.path)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-s.stop:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watch database", "path", s.path, "err", err)
		case <-fire:
			fire = nil
			s.refresh()
		}
	}
}

// refresh re-reads every subscribed key and broadcasts the ones whose value
// differs from the last value this Store committed or observed.
func (s *Store) refresh() {
	for _, key := range s.watchedKeys() {
		if c, ok := s.reread(key); ok {
			s.broadcast(c)
		}
	}
}

func (s *Store) reread(key string) (Change, bool) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	value, _, err := s.Get(ctx, key)
	if err != nil {
		s.log.Warn("re-read after external change", "key", key, "err", err)
		return Change{}, false
	}
	if prev, ok := s.known[key]; ok && bytes.Equal(prev, value) {
		return Change{}, false
	}
	s.known[key] = value
	return Change{Key: key, Value: value, Origin: OriginExternal}, true
}
