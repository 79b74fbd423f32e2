package leads

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// TempIDPrefix marks ids assigned to optimistic inserts before the store confirms them
const TempIDPrefix = "temp-"

type entry struct {
	confirmed *Lead
	pending   *Lead
	seq       uint64
}

func (e *entry) effective() *Lead {
	if e.pending != nil {
		return e.pending
	}
	return e.confirmed
}

// Book is one user's working set of leads, keyed by id. Writes are staged
// optimistically and later confirmed or rolled back. Every staged write gets
// a sequence number, and a confirm or rollback carrying an older number than
// the entry's latest patch leaves that newer patch in place.
type Book struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
}

// NewBook returns an empty book
func NewBook() *Book {
	return &Book{entries: make(map[string]*entry)}
}

// Load reconciles the book with the rows read from the store. Confirmed state
// is replaced wholesale; in-flight patches survive.
func (b *Book) Load(rows []Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fresh := make(map[string]bool, len(rows))
	for i := range rows {
		row := rows[i]
		fresh[row.ID] = true
		if e, ok := b.entries[row.ID]; ok {
			e.confirmed = &row
			continue
		}
		b.entries[row.ID] = &entry{confirmed: &row}
	}

	for id, e := range b.entries {
		if fresh[id] {
			continue
		}
		if e.pending == nil {
			delete(b.entries, id)
			continue
		}
		e.confirmed = nil
	}
}

// Stage records an optimistic insert or patch and returns its sequence number
func (b *Book) Stage(lead Lead) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	e, ok := b.entries[lead.ID]
	if !ok {
		e = &entry{}
		b.entries[lead.ID] = e
	}
	e.pending = &lead
	e.seq = b.seq
	return b.seq
}

// Confirm promotes the stored row. When an optimistic insert under a temp id
// is confirmed, the temp entry is replaced by the saved id.
func (b *Book) Confirm(id string, seq uint64, saved Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok {
		b.entries[saved.ID] = &entry{confirmed: &saved}
		return
	}

	if id != saved.ID {
		delete(b.entries, id)
		moved := &entry{confirmed: &saved}
		if e.seq != seq && e.pending != nil {
			newer := *e.pending
			newer.ID = saved.ID
			moved.pending = &newer
			moved.seq = e.seq
		}
		b.entries[saved.ID] = moved
		return
	}

	e.confirmed = &saved
	if e.seq == seq {
		e.pending = nil
	}
}

// Rollback drops a failed patch. Entries that were never confirmed disappear.
func (b *Book) Rollback(id string, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok || e.seq != seq {
		return
	}

	e.pending = nil
	if e.confirmed == nil {
		delete(b.entries, id)
	}
}

// Get returns the effective lead for id
func (b *Book) Get(id string) (Lead, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok {
		return Lead{}, false
	}
	return *e.effective(), true
}

// Pending reports whether id has an unconfirmed patch
func (b *Book) Pending(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	return ok && e.pending != nil
}

// Snapshot returns the effective view, newest first
func (b *Book) Snapshot() []Lead {
	b.mu.Lock()
	out := make([]Lead, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, *e.effective())
	}
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of leads in the effective view
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// IsTempID reports whether id was assigned to an unconfirmed insert
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// inFlight reports whether any staged write is still unresolved
func (b *Book) inFlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		if e.pending != nil {
			return true
		}
	}
	return false
}

// BookIdleTTL is how long an unused book stays in memory
const BookIdleTTL = 15 * time.Minute

type bookSlot struct {
	book *Book
	used time.Time
}

// Books hands out one Book per user. Books unused for longer than the idle
// TTL are dropped, unless a write on them is still in flight; the next For
// rebuilds them from the store.
type Books struct {
	mu        sync.Mutex
	books     map[string]*bookSlot
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewBooks creates an empty registry
func NewBooks() *Books {
	return &Books{
		books: make(map[string]*bookSlot),
		idle:  BookIdleTTL,
		now:   time.Now,
	}
}

// For returns the book of userID, creating it on first use
func (r *Books) For(userID string) *Book {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idle {
		r.sweep(now)
	}

	slot, ok := r.books[userID]
	if !ok {
		slot = &bookSlot{book: NewBook()}
		r.books[userID] = slot
	}
	slot.used = now
	return slot.book
}

// Len returns the number of books held
func (r *Books) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}

func (r *Books) sweep(now time.Time) {
	r.lastSweep = now
	for userID, slot := range r.books {
		if now.Sub(slot.used) > r.idle && !slot.book.inFlight() {
			delete(r.books, userID)
		}
	}
}
