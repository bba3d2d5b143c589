package feed

import "sync"

// Guard is the in-flight latch plus the generation counter. Together they
// decide whether a fetch may start and whether its outcome may still be
// applied when it lands. Acquisition is synchronous: a caller knows the
// answer before any asynchronous state has a chance to propagate.
type Guard struct {
	mu     sync.Mutex
	gen    uint64
	seq    uint64
	holder uint64 // seq of the holding ticket, 0 when free
}

// Ticket identifies one successful acquisition. The sequence number makes
// releases idempotent and safe: a ticket can only ever free the hold it
// took, never one taken after it.
type Ticket struct {
	gen uint64
	seq uint64
}

// Generation returns the epoch the ticket was issued under.
func (t Ticket) Generation() uint64 { return t.gen }

// TryAcquire claims the latch if it is free. There is no queue; a caller
// that loses simply skips its fetch.
func (g *Guard) TryAcquire() (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != 0 {
		return Ticket{}, false
	}
	g.seq++
	g.holder = g.seq
	return Ticket{gen: g.gen, seq: g.seq}, true
}

// Release frees the latch if t still holds it. Releases by superseded
// tickets are no-ops, so every fetch path may release unconditionally.
func (g *Guard) Release(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.seq != 0 && g.holder == t.seq {
		g.holder = 0
	}
}

// Invalidate starts a new generation and frees the latch so the new
// generation's first fetch can start immediately. Outcomes carried by older
// tickets become unappliable.
func (g *Guard) Invalidate() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.holder = 0
	return g.gen
}

// Current reports whether t belongs to the current generation.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return t.gen == g.gen
}

// Generation returns the current epoch.
func (g *Guard) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// InFlight reports whether some ticket currently holds the latch.
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder != 0
}
