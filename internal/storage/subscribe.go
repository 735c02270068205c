package storage

import (
	"bytes"
	"context"
	"time"
)

// subscriber holds at most one pending change. A newer change replaces an
// undelivered older one, so slow readers only ever see the latest value.
type subscriber struct {
	ch chan Change
}

// offer must be called with Store.mu held.
func (sub *subscriber) offer(c Change) {
	for {
		select {
		case sub.ch <- c:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

// Subscribe returns a channel of changes to key and a function that ends the
// subscription and closes the channel. On a closed Store the channel is
// already closed.
func (s *Store) Subscribe(key string) (<-chan Change, func()) {
	sub := &subscriber{ch: make(chan Change, 1)}
	if s.isClosed() {
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.remember(key)

	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	set, ok := s.subs[key]
	if !ok {
		set = make(map[*subscriber]struct{})
		s.subs[key] = set
	}
	set[sub] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		set, ok := s.subs[key]
		if !ok {
			return
		}
		if _, ok := set[sub]; !ok {
			return
		}
		delete(set, sub)
		if len(set) == 0 {
			delete(s.subs, key)
		}
		close(sub.ch)
	}
	return sub.ch, cancel
}

func (s *Store) broadcast(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs[c.Key] {
		sub.offer(Change{Key: c.Key, Value: bytes.Clone(c.Value), Origin: c.Origin})
	}
}

func (s *Store) watchedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	return keys
}

// remember records the current value of key as the baseline for external
// change detection.
func (s *Store) remember(key string) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if _, ok := s.known[key]; ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	value, _, err := s.Get(ctx, key)
	if err != nil {
		s.log.Warn("read baseline", "key", key, "err", err)
		return
	}
	s.known[key] = value
}
