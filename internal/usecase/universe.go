package usecase

import "github.com/vitos/crypto_crash_risk/internal/domain"

// Universe thresholds. Coins below these are too illiquid for the pillar
// signals to mean anything.
const (
	MinDayNotionalUsd  = 25_000_000.0
	MinOpenInterestUsd = 10_000_000.0
)

// UniverseFilter gates a coin in or out of evaluation. Missing inputs are
// reported as "data unavailable", which is not the same thing as failing a
// threshold, though both end in UNSUPPORTED downstream.
type UniverseFilter struct{}

func NewUniverseFilter() *UniverseFilter {
	return &UniverseFilter{}
}

func (f *UniverseFilter) Evaluate(snap *domain.MarketSnapshot) domain.UniverseTrace {
	trace := domain.UniverseTrace{
		AssetFound:           snap.AssetFound,
		DayNotionalVolumeUsd: snap.DayNotionalVolumeUsd,
		OpenInterestUsd:      snap.OpenInterestUsd,
		MinDayNotionalUsd:    MinDayNotionalUsd,
		MinOpenInterestUsd:   MinOpenInterestUsd,
	}

	if !snap.AssetFound {
		trace.DataUnavailable = true
		trace.FailedChecks = append(trace.FailedChecks, "asset not found on venue")
		return trace
	}

	if snap.DayNotionalVolumeUsd == nil {
		trace.DataUnavailable = true
		trace.FailedChecks = append(trace.FailedChecks, "day notional volume unavailable")
	} else if *snap.DayNotionalVolumeUsd <= MinDayNotionalUsd {
		trace.FailedChecks = append(trace.FailedChecks, "day notional volume below minimum")
	}

	if snap.OpenInterestUsd == nil {
		trace.DataUnavailable = true
		trace.FailedChecks = append(trace.FailedChecks, "open interest unavailable")
	} else if *snap.OpenInterestUsd <= MinOpenInterestUsd {
		trace.FailedChecks = append(trace.FailedChecks, "open interest below minimum")
	}

	trace.Eligible = len(trace.FailedChecks) == 0
	return trace
}
