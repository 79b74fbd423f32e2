package leads

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h int) time.Time {
	return time.Date(2026, 1, 1, h, 0, 0, 0, time.UTC)
}

func ids(ls []Lead) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestBook_OptimisticInsertConfirmed(t *testing.T) {
	b := NewBook()
	b.Load([]Lead{{ID: "a", Name: "Old", CreatedAt: at(1)}})

	seq := b.Stage(Lead{ID: "temp-1", Name: "New", CreatedAt: at(2)})
	assert.Equal(t, []string{"temp-1", "a"}, ids(b.Snapshot()))
	assert.True(t, b.Pending("temp-1"))

	b.Confirm("temp-1", seq, Lead{ID: "b", Name: "New", CreatedAt: at(2)})
	assert.Equal(t, []string{"b", "a"}, ids(b.Snapshot()))
	_, ok := b.Get("temp-1")
	assert.False(t, ok)
	assert.False(t, b.Pending("b"))
}

func TestBook_OptimisticInsertRolledBack(t *testing.T) {
	b := NewBook()
	seq := b.Stage(Lead{ID: "temp-1", CreatedAt: at(2)})
	b.Rollback("temp-1", seq)

	assert.Zero(t, b.Len())
}

func TestBook_PatchRollbackRestoresConfirmed(t *testing.T) {
	b := NewBook()
	b.Load([]Lead{{ID: "a", Name: "Before"}})

	seq := b.Stage(Lead{ID: "a", Name: "After"})
	got, _ := b.Get("a")
	assert.Equal(t, "After", got.Name)

	b.Rollback("a", seq)
	got, _ = b.Get("a")
	assert.Equal(t, "Before", got.Name)
}

func TestBook_StaleConfirmKeepsNewerPatch(t *testing.T) {
	b := NewBook()
	b.Load([]Lead{{ID: "a", Name: "v0"}})

	first := b.Stage(Lead{ID: "a", Name: "v1"})
	second := b.Stage(Lead{ID: "a", Name: "v2"})

	b.Confirm("a", first, Lead{ID: "a", Name: "v1"})
	got, _ := b.Get("a")
	assert.Equal(t, "v2", got.Name, "older confirmation must not clobber the newer patch")
	assert.True(t, b.Pending("a"))

	b.Rollback("a", first)
	got, _ = b.Get("a")
	assert.Equal(t, "v2", got.Name, "older rollback must not drop the newer patch")

	b.Confirm("a", second, Lead{ID: "a", Name: "v2"})
	assert.False(t, b.Pending("a"))
}

func TestBook_StaleRollbackAfterNewerConfirm(t *testing.T) {
	b := NewBook()
	b.Load([]Lead{{ID: "a", Name: "v0"}})

	first := b.Stage(Lead{ID: "a", Name: "v1"})
	second := b.Stage(Lead{ID: "a", Name: "v2"})
	b.Confirm("a", second, Lead{ID: "a", Name: "v2"})
	b.Rollback("a", first)

	got, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Name)
}

func TestBook_LoadKeepsPendingAndDropsGone(t *testing.T) {
	b := NewBook()
	b.Load([]Lead{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	b.Stage(Lead{ID: "a", Name: "A edited"})
	b.Stage(Lead{ID: "temp-x", Name: "X"})

	b.Load([]Lead{{ID: "a", Name: "A from store"}})

	got, _ := b.Get("a")
	assert.Equal(t, "A edited", got.Name)
	_, ok := b.Get("b")
	assert.False(t, ok)
	_, ok = b.Get("temp-x")
	assert.True(t, ok)
}

func TestBook_ConfirmTempWithNewerPatch(t *testing.T) {
	b := NewBook()
	first := b.Stage(Lead{ID: "temp-1", Name: "draft"})
	b.Stage(Lead{ID: "temp-1", Name: "draft edited"})

	b.Confirm("temp-1", first, Lead{ID: "real", Name: "draft"})

	got, ok := b.Get("real")
	require.True(t, ok)
	assert.Equal(t, "draft edited", got.Name)
	assert.Equal(t, "real", got.ID)
	assert.True(t, b.Pending("real"))
}

func TestBook_ConcurrentStage(t *testing.T) {
	b := NewBook()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := TempIDPrefix + string(rune('a'+i%26)) + string(rune('a'+i/26))
			seq := b.Stage(Lead{ID: id, CreatedAt: at(i % 24)})
			if i%2 == 0 {
				b.Rollback(id, seq)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, b.Len())
}

func TestBooks_ForIsStable(t *testing.T) {
	r := NewBooks()
	assert.Same(t, r.For("u1"), r.For("u1"))
	assert.NotSame(t, r.For("u1"), r.For("u2"))
}

func TestBooks_EvictsIdleBooks(t *testing.T) {
	clock := at(0)
	r := NewBooks()
	r.now = func() time.Time { return clock }

	idle := r.For("idle")
	busy := r.For("busy")
	busy.Stage(Lead{ID: "temp-1", Name: "Jane Doe"})

	clock = clock.Add(BookIdleTTL + time.Minute)
	r.For("fresh")
	assert.Equal(t, 2, r.Len(), "idle book dropped, book with a staged write kept")
	assert.Same(t, busy, r.For("busy"))
	assert.NotSame(t, idle, r.For("idle"))
}

func TestIsTempID(t *testing.T) {
	assert.True(t, IsTempID("temp-123"))
	assert.False(t, IsTempID("5f1c"))
}
