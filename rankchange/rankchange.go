// Package rankchange computes up/down/same/new movement indicators between
// leaderboard refreshes. It is a client-device affordance layered on a
// last-seen snapshot with a bounded freshness window; it is NOT a server-side
// source of truth, and independent devices keep independent baselines.
package rankchange

import (
	"sync"
	"time"
)

type Indicator string

const (
	Up   Indicator = "up"
	Down Indicator = "down"
	Same Indicator = "same"
	New  Indicator = "new"
)

const DefaultTTL = time.Hour

// Snapshot is the last-seen rank per artist id and when it was taken.
type Snapshot struct {
	Ranks   map[uint]int `json:"ranks"`
	TakenAt time.Time    `json:"takenAt"`
}

// Store persists snapshots between refreshes. Last write wins.
type Store interface {
	Load() (*Snapshot, bool)
	Save(snapshot *Snapshot)
}

// MemoryStore is the in-process Store used where no durable client storage
// exists.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

func (s *MemoryStore) Load() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot, true
}

func (s *MemoryStore) Save(snapshot *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

// Tracker compares current ranks against the cached snapshot.
type Tracker struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewTracker(store Store, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{store: store, ttl: ttl, now: time.Now}
}

// Observe returns one indicator per artist: "new" when no prior value exists,
// "up" when the current rank number is lower (better) than before, "down"
// when higher, "same" otherwise. A snapshot older than the TTL is discarded
// rather than compared against. The snapshot is overwritten whenever any
// tracked rank differs from the cached value.
func (t *Tracker) Observe(current map[uint]int) map[uint]Indicator {
	indicators := make(map[uint]Indicator, len(current))

	previous, ok := t.store.Load()
	if ok && t.now().Sub(previous.TakenAt) > t.ttl {
		previous, ok = nil, false
	}

	changed := !ok
	for artistID, rank := range current {
		if !ok {
			indicators[artistID] = New
			continue
		}
		prevRank, seen := previous.Ranks[artistID]
		switch {
		case !seen:
			indicators[artistID] = New
			changed = true
		case rank < prevRank:
			indicators[artistID] = Up
			changed = true
		case rank > prevRank:
			indicators[artistID] = Down
			changed = true
		default:
			indicators[artistID] = Same
		}
	}

	if changed {
		ranks := make(map[uint]int, len(current))
		for artistID, rank := range current {
			ranks[artistID] = rank
		}
		t.store.Save(&Snapshot{Ranks: ranks, TakenAt: t.now()})
	}
	return indicators
}
