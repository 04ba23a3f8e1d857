package workflow

import (
	"sync"
	"time"
)

// lockTable hands out one mutex per document. Entries idle longer than
// expiry are dropped on the next acquire, unless they are held.
type lockTable struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
	expiry  time.Duration
	now     func() time.Time
}

type lockEntry struct {
	mu         sync.Mutex
	refs       int
	lastAccess time.Time
}

func newLockTable(expiry time.Duration) *lockTable {
	return &lockTable{
		entries: make(map[int64]*lockEntry),
		expiry:  expiry,
		now:     time.Now,
	}
}

// acquire locks the document and returns the matching release func
func (t *lockTable) acquire(id int64) func() {
	t.mu.Lock()
	now := t.now()
	t.sweep(now)

	entry, ok := t.entries[id]
	if !ok {
		entry = &lockEntry{}
		t.entries[id] = entry
	}
	entry.refs++
	entry.lastAccess = now
	t.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		t.mu.Lock()
		entry.refs--
		entry.lastAccess = t.now()
		t.mu.Unlock()
	}
}

// prune drops expired entries and returns how many were removed
func (t *lockTable) prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweep(t.now())
}

// sweep must be called with t.mu held
func (t *lockTable) sweep(now time.Time) int {
	if t.expiry <= 0 {
		return 0
	}
	removed := 0
	for id, entry := range t.entries {
		if entry.refs == 0 && now.Sub(entry.lastAccess) > t.expiry {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}

func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
