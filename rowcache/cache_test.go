package rowcache

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func row(pk byte, v byte) []byte { return []byte{pk, 0, 0, 0, v} }

func TestUpdateDetectionSamePKCollapsesToUpdate(t *testing.T) {
	cache := NewClientCache(map[string]PrimaryKeyExtractor{"t": FixedPrefix(4)})
	cache.ApplyDelta("t", nil, [][]byte{row(1, 10)})

	var events []Event
	cache.OnTable("t", func(ev Event) { events = append(events, ev) })

	cache.ApplyDelta("t", [][]byte{row(1, 10)}, [][]byte{row(1, 20)})

	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Kind, EventUpdate)
	assert.Equal(t, events[0].Old, row(1, 10))
	assert.Equal(t, events[0].New, row(1, 20))

	table := cache.Table("t")
	assert.Equal(t, table.Len(), 1)
	got, ok := table.Get(FixedPrefix(4)(row(1, 20)))
	assert.Equal(t, ok, true)
	assert.Equal(t, got, row(1, 20))

	ins, del, upd := cache.Stats()
	assert.Equal(t, ins, int64(1))
	assert.Equal(t, del, int64(0))
	assert.Equal(t, upd, int64(1))
}

func TestUpdateDetectionDifferentPKEmitsInsertAndDelete(t *testing.T) {
	cache := NewClientCache(map[string]PrimaryKeyExtractor{"t": FixedPrefix(4)})
	cache.ApplyDelta("t", nil, [][]byte{row(1, 0)})

	var events []Event
	cache.OnTable("t", func(ev Event) { events = append(events, ev) })

	cache.ApplyDelta("t", [][]byte{row(1, 0)}, [][]byte{row(2, 0)})

	assert.Equal(t, len(events), 2)
	kinds := map[EventKind]bool{events[0].Kind: true, events[1].Kind: true}
	assert.Equal(t, kinds[EventInsert], true)
	assert.Equal(t, kinds[EventDelete], true)

	table := cache.Table("t")
	assert.Equal(t, table.Len(), 1)
	_, ok := table.Get(FixedPrefix(4)(row(1, 0)))
	assert.Equal(t, ok, false)
	_, ok = table.Get(FixedPrefix(4)(row(2, 0)))
	assert.Equal(t, ok, true)
}

func TestScopedObserverDispatch(t *testing.T) {
	cache := NewClientCache(nil)

	var tableKindHits, tableHits, anyHits int
	cache.OnTableKind("t", EventInsert, func(Event) { tableKindHits++ })
	cache.OnTable("t", func(Event) { tableHits++ })
	cache.OnAny(func(Event) { anyHits++ })
	cache.OnTableKind("other", EventInsert, func(Event) { t.Fatal("should not fire for other table") })

	cache.ApplyDelta("t", nil, [][]byte{[]byte("row1")})

	assert.Equal(t, tableKindHits, 1)
	assert.Equal(t, tableHits, 1)
	assert.Equal(t, anyHits, 1)
}

func TestRemoveObserverIsIdempotent(t *testing.T) {
	cache := NewClientCache(nil)
	hits := 0
	h := cache.OnAny(func(Event) { hits++ })
	cache.Remove(h)
	cache.Remove(h) // no panic, no-op

	cache.ApplyDelta("t", nil, [][]byte{[]byte("row1")})
	assert.Equal(t, hits, 0)
}

func TestLegacyUpdateSplitOffByDefault(t *testing.T) {
	cache := NewClientCache(map[string]PrimaryKeyExtractor{"t": FixedPrefix(4)})
	cache.ApplyDelta("t", nil, [][]byte{row(1, 10)})

	legacyHits := 0
	cache.OnTableKindLegacy("t", EventDelete, func(Event) { legacyHits++ })
	cache.ApplyDelta("t", [][]byte{row(1, 10)}, [][]byte{row(1, 20)})

	assert.Equal(t, legacyHits, 0)
}

func TestLegacyUpdateSplitWhenEnabled(t *testing.T) {
	cache := NewClientCache(map[string]PrimaryKeyExtractor{"t": FixedPrefix(4)})
	cache.LegacyUpdateSplit = true
	cache.ApplyDelta("t", nil, [][]byte{row(1, 10)})

	var deleteOld, insertNew []byte
	cache.OnTableKindLegacy("t", EventDelete, func(ev Event) { deleteOld = ev.Old })
	cache.OnTableKindLegacy("t", EventInsert, func(ev Event) { insertNew = ev.New })
	cache.ApplyDelta("t", [][]byte{row(1, 10)}, [][]byte{row(1, 20)})

	assert.Equal(t, deleteOld, row(1, 10))
	assert.Equal(t, insertNew, row(1, 20))
}

func TestFixedPrefixDegradesForShortRows(t *testing.T) {
	extractor := FixedPrefix(8)
	short := []byte{1, 2, 3}
	assert.Equal(t, extractor(short), string(short))
}

func TestClearKeepsTableStructureResetDoesNot(t *testing.T) {
	cache := NewClientCache(map[string]PrimaryKeyExtractor{"t": FixedPrefix(4)})
	cache.ApplyDelta("t", nil, [][]byte{row(1, 0)})

	cache.Clear()
	assert.Equal(t, cache.Table("t").Len(), 0)

	cache.ApplyDelta("t", nil, [][]byte{row(2, 0)})
	ins, _, _ := cache.Stats()
	assert.Equal(t, ins, int64(2))

	cache.Reset()
	ins, del, upd := cache.Stats()
	assert.Equal(t, ins, int64(0))
	assert.Equal(t, del, int64(0))
	assert.Equal(t, upd, int64(0))
}
