package usecase

import (
	"fmt"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

// Structure thresholds, expressed as absolute close-to-close returns.
const (
	WeakeningReturn = 0.002 // 0.2% against the crowded side
	Broken15mReturn = 0.006 // 0.6% on the 15m horizon
	Broken1hReturn  = 0.012 // 1.2% on the 1h horizon
)

// StructureEvaluator classifies short-horizon continuation or breakdown
// relative to the crowded side. It only runs once crowding is confirmed with
// a definite direction; when either return cannot be computed the state is
// N/A, never coerced into a named state.
type StructureEvaluator struct{}

func NewStructureEvaluator() *StructureEvaluator {
	return &StructureEvaluator{}
}

func (e *StructureEvaluator) Evaluate(snap *domain.MarketSnapshot, direction domain.Direction) domain.StructureTrace {
	trace := domain.StructureTrace{
		Evaluated: true,
		State:     domain.StructureNA,
	}

	if direction != domain.LongCrowded && direction != domain.ShortCrowded {
		trace.Evaluated = false
		trace.Reason = "no crowding direction"
		return trace
	}

	trace.Return15m = closeToCloseReturn(snap.Candles15m)
	trace.Return1h = closeToCloseReturn(snap.Candles1h)

	if trace.Return15m == nil || trace.Return1h == nil {
		trace.Reason = structureDataReason(snap, trace.Return15m, trace.Return1h)
		return trace
	}

	r15 := *trace.Return15m
	r1h := *trace.Return1h

	// Branch order is a deliberate tie-break: continuation-intact first, then
	// broken, then weakening, then the intact default. Returns that satisfy
	// several conditions at once must resolve in exactly this order.
	if direction == domain.LongCrowded {
		switch {
		case r15 > 0 && r1h > 0:
			trace.State = domain.StructureIntact
		case r15 <= -Broken15mReturn || r1h <= -Broken1hReturn:
			trace.State = domain.StructureBroken
		case r15 <= -WeakeningReturn:
			trace.State = domain.StructureWeakening
		default:
			trace.State = domain.StructureIntact
		}
	} else {
		switch {
		case r15 < 0 && r1h < 0:
			trace.State = domain.StructureIntact
		case r15 >= Broken15mReturn || r1h >= Broken1hReturn:
			trace.State = domain.StructureBroken
		case r15 >= WeakeningReturn:
			trace.State = domain.StructureWeakening
		default:
			trace.State = domain.StructureIntact
		}
	}
	return trace
}

// closeToCloseReturn computes (closeLast - closePrev) / closePrev over the
// two most recent candles, nil when there are not enough candles or the
// previous close is zero.
func closeToCloseReturn(candles []domain.Candle) *float64 {
	if len(candles) < 2 {
		return nil
	}
	prev := candles[len(candles)-2].Close
	last := candles[len(candles)-1].Close
	if prev == 0 {
		return nil
	}
	r := (last - prev) / prev
	return &r
}

func structureDataReason(snap *domain.MarketSnapshot, r15, r1h *float64) string {
	if r15 == nil {
		if reason := snap.SourceError(SourceCandles15m); reason != "" {
			return fmt.Sprintf("15m candles fetch failed: %s", reason)
		}
		return "15m return unavailable"
	}
	if reason := snap.SourceError(SourceCandles1h); reason != "" {
		return fmt.Sprintf("1h candles fetch failed: %s", reason)
	}
	return "1h return unavailable"
}
