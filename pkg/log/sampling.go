package log

import (
	"log/slog"
	"sync"
)

type samplerKey struct {
	level slog.Level
	msg   string
}

// sampler passes the first `initial` records of each (level, message) pair
// and every `thereafter`-th one after that.
type sampler struct {
	mu         sync.Mutex
	initial    uint64
	thereafter uint64
	counts     map[samplerKey]uint64
}

func newSampler(initial, thereafter int) *sampler {
	if initial < 0 {
		initial = 0
	}
	if thereafter <= 0 {
		thereafter = 1
	}
	return &sampler{initial: uint64(initial), thereafter: uint64(thereafter), counts: make(map[samplerKey]uint64)}
}

func (s *sampler) allow(level slog.Level, msg string) bool {
	k := samplerKey{level, msg}
	s.mu.Lock()
	n := s.counts[k]
	s.counts[k] = n + 1
	s.mu.Unlock()
	return n < s.initial || (n-s.initial)%s.thereafter == 0
}
