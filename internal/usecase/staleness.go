package usecase

import (
	"sync"
	"time"
)

// StalenessThreshold is how long the engine may go without a successful
// cycle before every tracked coin is forced to UNSUPPORTED.
const StalenessThreshold = 60 * time.Second

// StaleReason is the fixed reason string attached to staleness overrides.
const StaleReason = "data stale"

// StalenessMonitor tracks the last cycle that completed without error. The
// override it drives is the one path allowed to pull RED/ORANGE down to
// UNSUPPORTED without waiting out a cooldown.
type StalenessMonitor struct {
	lastSuccess time.Time
	mu          sync.Mutex
}

func NewStalenessMonitor() *StalenessMonitor {
	return &StalenessMonitor{}
}

func (m *StalenessMonitor) MarkSuccess(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSuccess = now
}

// Stale reports whether the data is too old to trust. Before the first
// successful cycle there is nothing to be stale relative to; coins are
// UNSUPPORTED through the data-availability path instead.
func (m *StalenessMonitor) Stale(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSuccess.IsZero() {
		return false
	}
	return now.Sub(m.lastSuccess) > StalenessThreshold
}

func (m *StalenessMonitor) LastSuccess() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSuccess
}
