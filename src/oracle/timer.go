package oracle

import "time"

// sendTimer measures the time spent in a sending state from its first
// broadcast, and paces rebroadcasts.
type sendTimer struct {
	first time.Time
	last  time.Time
}

func (t *sendTimer) reset() {
	t.first = time.Time{}
	t.last = time.Time{}
}

// due reports whether a broadcast may be sent at now.
func (t *sendTimer) due(now time.Time, interval time.Duration) bool {
	return t.last.IsZero() || now.Sub(t.last) >= interval
}

func (t *sendTimer) mark(now time.Time) {
	if t.first.IsZero() {
		t.first = now
	}
	t.last = now
}

// expired reports whether more than period has elapsed since the first
// broadcast. It is false until something was sent.
func (t *sendTimer) expired(now time.Time, period time.Duration) bool {
	return !t.first.IsZero() && now.Sub(t.first) > period
}
