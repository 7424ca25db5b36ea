package page

import (
	"sync"
	"time"
)

// IDGen hands out row and column ids. Ids are millisecond timestamps, bumped
// past the last issued id so two entities created in the same instant never
// collide. It is safe for concurrent use.
type IDGen struct {
	mu   sync.Mutex
	last ID
	now  func() time.Time
}

// NewIDGen returns a generator backed by the wall clock.
func NewIDGen() *IDGen {
	return &IDGen{now: time.Now}
}

// newIDGenAt is used by tests to pin the clock.
func newIDGenAt(now func() time.Time) *IDGen {
	return &IDGen{now: now}
}

// Next returns a fresh id.
func (g *IDGen) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ID(g.now().UnixMilli())
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe makes sure future ids are greater than every id in doc. Call it
// after loading a document that was created by another generator.
func (g *IDGen) Observe(doc Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m := doc.MaxID(); m > g.last {
		g.last = m
	}
}
