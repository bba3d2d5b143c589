package feed

// Sentinel turns continuous marker-visibility reports into discrete
// load-more triggers. It observes only while the feed is idle with more
// pages available, and fires on the visibility edge: the marker must leave
// the viewport, or observation must restart, before it can fire again.
type Sentinel struct {
	observing  bool
	wasVisible bool
}

// Observe feeds one visibility report and returns true when a fetch should
// start. loading and hasMore describe the feed at the moment the caller
// read it; while they forbid fetching the sentinel is disarmed and forgets
// what it saw. Re-arming counts an already-visible marker as a fresh edge,
// which is what keeps a reader parked at the bottom loading page after
// page.
func (s *Sentinel) Observe(visible, loading, hasMore bool) bool {
	if loading || !hasMore {
		s.observing = false
		s.wasVisible = false
		return false
	}
	if !s.observing {
		s.observing = true
		s.wasVisible = false
	}
	fire := visible && !s.wasVisible
	s.wasVisible = visible
	return fire
}
