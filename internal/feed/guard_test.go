package feed

import "testing"

func TestGuard_TryAcquireIsExclusive(t *testing.T) {
	var g Guard

	first, ok := g.TryAcquire()
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}
	if _, ok := g.TryAcquire(); ok {
		t.Fatal("expected second acquire to fail while held")
	}

	g.Release(first)
	if _, ok := g.TryAcquire(); !ok {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestGuard_InvalidateOutdatesTicketsAndFreesLatch(t *testing.T) {
	var g Guard

	ticket, _ := g.TryAcquire()
	if !g.Current(ticket) {
		t.Fatal("fresh ticket must be current")
	}

	gen := g.Invalidate()
	if g.Current(ticket) {
		t.Fatal("ticket must be outdated after invalidate")
	}
	if g.Generation() != gen {
		t.Fatalf("expected generation %d, got %d", gen, g.Generation())
	}
	if g.InFlight() {
		t.Fatal("invalidate must free the latch")
	}
}

func TestGuard_StaleReleaseCannotFreeNewHolder(t *testing.T) {
	var g Guard

	old, _ := g.TryAcquire()
	g.Invalidate()

	fresh, ok := g.TryAcquire()
	if !ok {
		t.Fatal("expected acquire after invalidate")
	}

	g.Release(old)
	if _, ok := g.TryAcquire(); ok {
		t.Fatal("stale release freed the latch out from under the holder")
	}

	g.Release(fresh)
	if _, ok := g.TryAcquire(); !ok {
		t.Fatal("expected acquire after the real holder released")
	}
}

func TestGuard_DoubleReleaseIsHarmless(t *testing.T) {
	var g Guard

	first, _ := g.TryAcquire()
	g.Release(first)

	second, _ := g.TryAcquire()
	g.Release(first)
	if _, ok := g.TryAcquire(); ok {
		t.Fatal("repeated release of an old ticket freed an unrelated hold")
	}
	g.Release(second)
}
