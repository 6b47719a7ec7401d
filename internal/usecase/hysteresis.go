package usecase

import (
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

// Minimum dwell times before a downgrade out of a state may register.
const (
	HoldLeavingRed    = 30 * time.Minute
	HoldLeavingOrange = 15 * time.Minute
)

// HysteresisGuard keeps the effective state from flapping: upgrades apply
// immediately, downgrades only after the minimum hold for the state being
// left. A transition into UNSUPPORTED also applies immediately — data loss
// fails open, bypassing any active hold. That is deliberate; do not "fix" it
// without product sign-off.
type HysteresisGuard struct{}

func NewHysteresisGuard() *HysteresisGuard {
	return &HysteresisGuard{}
}

// Apply computes the effective state and updates the coin's memory. EnteredAt
// moves only when the effective state actually changes.
func (g *HysteresisGuard) Apply(mem *CoinMemoryState, computed domain.RiskState, now time.Time) domain.HysteresisTrace {
	trace := domain.HysteresisTrace{
		Previous:          mem.LastState,
		PreviousEnteredAt: mem.EnteredAt,
	}

	prev := mem.LastState
	if prev == "" ||
		computed == prev ||
		computed == domain.StateUnsupported ||
		computed.Rank() >= prev.Rank() {
		trace.Effective = computed
		if computed != prev {
			mem.LastState = computed
			mem.EnteredAt = now
		}
		return trace
	}

	// Strict severity downgrade: honor the hold for the state being left.
	hold := holdFor(prev)
	elapsed := now.Sub(mem.EnteredAt)
	if elapsed >= hold {
		trace.Effective = computed
		mem.LastState = computed
		mem.EnteredAt = now
		return trace
	}

	trace.Blocked = true
	trace.HoldRemaining = hold - elapsed
	trace.Effective = prev
	return trace
}

func holdFor(state domain.RiskState) time.Duration {
	switch state {
	case domain.StateRed:
		return HoldLeavingRed
	case domain.StateOrange:
		return HoldLeavingOrange
	default:
		return 0
	}
}
