package wavebase

import "sync/atomic"

// idGenerator produces strictly increasing uint32 values until the
// counter wraps past math.MaxUint32, after which it continues
// monotonically from 0 (spec.md §8 property 9). Request ids and query
// ids are allocated from separate counters.
type idGenerator struct {
	next atomic.Uint32
}

func (g *idGenerator) Next() uint32 {
	return g.next.Add(1) - 1
}
