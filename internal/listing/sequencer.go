package listing

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Sequencer orders the fetches of one list screen. Each fetch takes a Ticket;
// starting a newer fetch cancels the previous one and only the newest
// ticket's response may be applied.
type Sequencer struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	used   time.Time // guarded by Sequencers.mu
}

type Ticket struct {
	s   *Sequencer
	n   uint64
	ctx context.Context
}

// Begin issues a ticket whose context is canceled when a newer ticket is
// issued or when the fetch is done.
func (s *Sequencer) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel
	n := s.seq
	s.mu.Unlock()
	return &Ticket{s: s, n: n, ctx: ctx}
}

func (t *Ticket) Context() context.Context { return t.ctx }

// Current reports whether no newer ticket has been issued.
func (t *Ticket) Current() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.n == t.s.seq
}

// Done releases the ticket's context.
func (t *Ticket) Done() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.n == t.s.seq && t.s.cancel != nil {
		t.s.cancel()
		t.s.cancel = nil
	}
}

// Sequencers keeps one Sequencer per key, e.g. session and screen.
type Sequencers struct {
	mu   sync.Mutex
	byID map[string]*Sequencer
}

func NewSequencers() *Sequencers { return &Sequencers{byID: map[string]*Sequencer{}} }

func (s *Sequencers) For(key string) *Sequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	sq, ok := s.byID[key]
	if !ok {
		sq = &Sequencer{}
		s.byID[key] = sq
	}
	sq.used = time.Now()
	return sq
}

// Forget drops the sequencers whose key starts with prefix, i.e. those of a
// session that ended.
func (s *Sequencers) Forget(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.byID {
		if strings.HasPrefix(k, prefix) {
			delete(s.byID, k)
		}
	}
}

// Sweep drops sequencers not used for idle, which covers sessions that
// lapse without a logout. It returns how many were dropped.
func (s *Sequencers) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, sq := range s.byID {
		if sq.used.Before(cutoff) {
			delete(s.byID, k)
			n++
		}
	}
	return n
}

func (s *Sequencers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
