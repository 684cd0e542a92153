// Package rowcache holds a coherent client-side mirror of subscribed
// table rows: per-table primary-key indexing, insert/delete/update
// change detection, and scoped observer dispatch.
package rowcache

import (
	"sync"
	"sync/atomic"

	"github.com/wavebase/client-go/metrics"
)

// ObserverHandle is returned by registration and used to deregister.
// Deregistration by handle is idempotent and safe under concurrent
// dispatch, matching the teacher's CallbackList id/remove contract.
type ObserverHandle int64

type registration struct {
	handle ObserverHandle
	table  *string // nil matches every table
	kind   *EventKind // nil matches every kind ("change" scope)
	legacy *EventKind // non-nil only for synthesized backward-compat delete/insert-on-update registrations
	cb     func(Event)
}

// TableCache holds PrimaryKey -> Row for one table, plus its name and an
// optional server-assigned table id.
type TableCache struct {
	Name    string
	TableID *uint32

	mu   sync.RWMutex
	rows map[string][]byte
}

func newTableCache(name string) *TableCache {
	return &TableCache{Name: name, rows: make(map[string][]byte)}
}

// Len returns the current row count.
func (t *TableCache) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns the row stored at the given extracted primary key.
func (t *TableCache) Get(pk string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[pk]
	return row, ok
}

// SetTableID records the server-assigned table id observed on an inbound
// TableUpdate, overwriting any id recorded earlier.
func (t *TableCache) SetTableID(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TableID = &id
}

// Rows returns a snapshot of every row currently cached.
func (t *TableCache) Rows() [][]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]byte, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	return out
}

// ClientCache maps table name to TableCache, dispatching change events
// to scoped observers as deltas are applied.
type ClientCache struct {
	extractors map[string]PrimaryKeyExtractor
	metrics    *metrics.Cache

	// LegacyUpdateSplit, when true, additionally fires synthesized
	// delete/insert events (carrying old and new respectively) for an
	// update, to registrations made with OnTableKindLegacy. Off by
	// default per the spec's resolution of the update-event dispatch
	// open question.
	LegacyUpdateSplit bool

	mu     sync.Mutex
	tables map[string]*TableCache
	regs   []registration
	nextHandle int64

	totalInserts atomic.Int64
	totalDeletes atomic.Int64
	totalUpdates atomic.Int64
}

// NewClientCache builds a cache with a session-scoped table-name ->
// extractor map, replacing the reference implementation's process-wide
// PrimaryKeyExtractorRegistry global (see SPEC_FULL.md §4.D).
func NewClientCache(extractors map[string]PrimaryKeyExtractor) *ClientCache {
	if extractors == nil {
		extractors = map[string]PrimaryKeyExtractor{}
	}
	return &ClientCache{
		extractors: extractors,
		tables:     make(map[string]*TableCache),
	}
}

// SetMetrics attaches a Prometheus collector set that ApplyDelta keeps in
// lockstep with the in-memory totals. Safe to call at most once, before
// the cache starts receiving deltas; nil is a valid no-op value.
func (c *ClientCache) SetMetrics(m *metrics.Cache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

func (c *ClientCache) extractorFor(table string) PrimaryKeyExtractor {
	if ex, ok := c.extractors[table]; ok {
		return ex
	}
	return Identity
}

// Table returns the named table's cache, creating it lazily if absent.
func (c *ClientCache) Table(name string) *TableCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tableLocked(name)
}

func (c *ClientCache) tableLocked(name string) *TableCache {
	t, ok := c.tables[name]
	if !ok {
		t = newTableCache(name)
		c.tables[name] = t
	}
	return t
}

// Stats returns the running totals, incremented in lockstep with event
// emission.
func (c *ClientCache) Stats() (inserts, deletes, updates int64) {
	return c.totalInserts.Load(), c.totalDeletes.Load(), c.totalUpdates.Load()
}

// ApplyDelta applies one table's (deletes, inserts) row delta using the
// update-detection algorithm: inserts are applied first, and any delete
// whose primary key was touched by an insert in this same delta is
// suppressed. This collapses a same-PK delete+insert pair into a single
// update event and satisfies the pure-insert/pure-delete case when the
// two lists touch disjoint keys (spec.md §4.D, §8 properties 6 and 7).
func (c *ClientCache) ApplyDelta(tableName string, deletes, inserts [][]byte) {
	extractor := c.extractorFor(tableName)

	c.mu.Lock()
	table := c.tableLocked(tableName)
	table.mu.Lock()

	type pendingEvent struct {
		kind EventKind
		old  []byte
		new  []byte
	}
	var pending []pendingEvent

	insertedPKs := make(map[string]bool, len(inserts))
	for _, row := range inserts {
		pk := extractor(row)
		insertedPKs[pk] = true
		old, existed := table.rows[pk]
		table.rows[pk] = row
		if existed {
			pending = append(pending, pendingEvent{EventUpdate, old, row})
		} else {
			pending = append(pending, pendingEvent{EventInsert, nil, row})
		}
	}
	for _, row := range deletes {
		pk := extractor(row)
		if insertedPKs[pk] {
			continue
		}
		if old, present := table.rows[pk]; present {
			delete(table.rows, pk)
			pending = append(pending, pendingEvent{EventDelete, old, nil})
		}
	}
	rowsCurrent := len(table.rows)
	table.mu.Unlock()

	regsSnapshot := make([]registration, len(c.regs))
	copy(regsSnapshot, c.regs)
	m := c.metrics
	c.mu.Unlock()

	for _, ev := range pending {
		switch ev.kind {
		case EventInsert:
			c.totalInserts.Add(1)
			if m != nil {
				m.InsertsTotal.WithLabelValues(tableName).Inc()
			}
		case EventDelete:
			c.totalDeletes.Add(1)
			if m != nil {
				m.DeletesTotal.WithLabelValues(tableName).Inc()
			}
		case EventUpdate:
			c.totalUpdates.Add(1)
			if m != nil {
				m.UpdatesTotal.WithLabelValues(tableName).Inc()
			}
		}
		c.dispatch(regsSnapshot, Event{Table: tableName, Kind: ev.kind, Old: ev.old, New: ev.new})
	}
	if m != nil && len(pending) > 0 {
		m.RowsCurrent.WithLabelValues(tableName).Set(float64(rowsCurrent))
	}
}

func (c *ClientCache) dispatch(regs []registration, ev Event) {
	for _, r := range regs {
		if r.legacy != nil {
			continue
		}
		if r.table != nil && *r.table != ev.Table {
			continue
		}
		if r.kind != nil && *r.kind != ev.Kind {
			continue
		}
		r.cb(ev)
	}

	if ev.Kind != EventUpdate || !c.LegacyUpdateSplit {
		return
	}
	delEv := Event{Table: ev.Table, Kind: EventDelete, Old: ev.Old}
	insEv := Event{Table: ev.Table, Kind: EventInsert, New: ev.New}
	for _, r := range regs {
		if r.legacy == nil {
			continue
		}
		if r.table != nil && *r.table != ev.Table {
			continue
		}
		switch *r.legacy {
		case EventDelete:
			r.cb(delEv)
		case EventInsert:
			r.cb(insEv)
		}
	}
}

// OnTableKind registers cb for events of exactly kind on table.
func (c *ClientCache) OnTableKind(table string, kind EventKind, cb func(Event)) ObserverHandle {
	return c.register(&table, &kind, nil, cb)
}

// OnTable registers cb for every kind of event on table ("change" scope).
func (c *ClientCache) OnTable(table string, cb func(Event)) ObserverHandle {
	return c.register(&table, nil, nil, cb)
}

// OnAny registers cb for every kind of event on every table (global
// "change" scope).
func (c *ClientCache) OnAny(cb func(Event)) ObserverHandle {
	return c.register(nil, nil, nil, cb)
}

// OnTableKindLegacy registers cb to receive a synthesized Insert or
// Delete event when an Update occurs, for backward-compatible callers
// that only understand per-kind callbacks. Has no effect unless
// LegacyUpdateSplit is set.
func (c *ClientCache) OnTableKindLegacy(table string, kind EventKind, cb func(Event)) ObserverHandle {
	k := kind
	return c.register(&table, nil, &k, cb)
}

func (c *ClientCache) register(table *string, kind *EventKind, legacy *EventKind, cb func(Event)) ObserverHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextHandle++
	h := ObserverHandle(c.nextHandle)
	c.regs = append(c.regs, registration{handle: h, table: table, kind: kind, legacy: legacy, cb: cb})
	return h
}

// Remove deregisters an observer handle. Idempotent: removing an
// already-removed or unknown handle is a no-op.
func (c *ClientCache) Remove(handle ObserverHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.regs {
		if r.handle == handle {
			c.regs = append(c.regs[:i:i], c.regs[i+1:]...)
			return
		}
	}
}

// Clear removes every row from every table but keeps table structures
// and registered extractors. Fires no events.
func (c *ClientCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tables {
		t.mu.Lock()
		t.rows = make(map[string][]byte)
		t.mu.Unlock()
	}
}

// Reset removes every table and resets statistics. Fires no events.
func (c *ClientCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*TableCache)
	c.totalInserts.Store(0)
	c.totalDeletes.Store(0)
	c.totalUpdates.Store(0)
}
