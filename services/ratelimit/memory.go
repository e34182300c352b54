package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// MemoryStore keeps fixed window counters in process memory.
// Expired windows are swept periodically until Close is called.
type MemoryStore struct {
	mux     sync.Mutex
	windows map[string]*window
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, time.Duration, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(win)}
		s.windows[key] = w
	}
	w.count++
	if w.count > limit {
		return false, w.reset.Sub(now), nil
	}
	return true, 0, nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mux.Lock()
	defer s.mux.Unlock()
	now := s.now()
	for k, w := range s.windows {
		if !now.Before(w.reset) {
			delete(s.windows, k)
		}
	}
}

func (s *MemoryStore) size() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.windows)
}

func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}
