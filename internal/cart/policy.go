package cart

import "time"

// DefaultDebounceWindow is how long a fetched projection satisfies reads
// without another request.
const DefaultDebounceWindow = 500 * time.Millisecond

// FreshnessPolicy decides whether a snapshot can answer a read.
type FreshnessPolicy struct {
	Window time.Duration
	Now    func() time.Time
}

func NewFreshnessPolicy(window time.Duration) FreshnessPolicy {
	return FreshnessPolicy{Window: window, Now: time.Now}
}

func (p FreshnessPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Fresh reports whether snap was fetched within the window.
func (p FreshnessPolicy) Fresh(snap Snapshot) bool {
	if p.Window <= 0 || snap.FetchedAt.IsZero() {
		return false
	}
	age := p.now().Sub(snap.FetchedAt)
	return age >= 0 && age < p.Window
}
