package usecase

import (
	"fmt"
	"math"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

const (
	// ImpactCostThresholdBps flags a thin book on the primary path.
	ImpactCostThresholdBps = 25.0
	// Fallback path thresholds. Both must hold: a wide spread alone on a
	// deep book, or a shallow book with a tight spread, is not stress.
	SpreadThresholdBps  = 8.0
	MinDepthNotionalUsd = 500_000.0
	// DepthBandPct bounds the levels counted toward depth, around mid.
	DepthBandPct = 0.002
)

// LiquidityStressDetector flags thin order books. The primary signal is the
// venue's quoted impact cost; the spread+depth fallback is consulted only
// when impact price data is absent.
type LiquidityStressDetector struct{}

func NewLiquidityStressDetector() *LiquidityStressDetector {
	return &LiquidityStressDetector{}
}

func (d *LiquidityStressDetector) Evaluate(snap *domain.MarketSnapshot) domain.LiquidityTrace {
	trace := domain.LiquidityTrace{
		Evaluated:           true,
		Path:                "none",
		ImpactThresholdBps:  ImpactCostThresholdBps,
		SpreadThresholdBps:  SpreadThresholdBps,
		MinDepthNotionalUsd: MinDepthNotionalUsd,
	}

	if snap.Impact != nil && snap.MarkPrice > 0 {
		trace.Path = "impact"
		cost := math.Abs(snap.Impact.Ask-snap.Impact.Bid) / snap.MarkPrice * 10000
		trace.ImpactCostBps = &cost
		trace.Raw = cost >= ImpactCostThresholdBps
		return trace
	}

	if reason := snap.SourceError(SourceOrderBook); reason != "" {
		trace.Reason = fmt.Sprintf("order book fetch failed: %s", reason)
		return trace
	}
	book := snap.Book
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		trace.Reason = "order book unavailable"
		return trace
	}

	trace.Path = "book"
	bestBid := book.Bids[0].Price
	bestAsk := book.Asks[0].Price
	mid := (bestBid + bestAsk) / 2
	if mid <= 0 {
		trace.Reason = "order book has no usable mid price"
		return trace
	}

	spread := (bestAsk - bestBid) / mid * 10000
	trace.SpreadBps = &spread

	depth := bandDepthNotional(book.Bids, mid*(1-DepthBandPct), true) +
		bandDepthNotional(book.Asks, mid*(1+DepthBandPct), false)
	trace.DepthNotionalUsd = &depth

	trace.Raw = spread >= SpreadThresholdBps && depth < MinDepthNotionalUsd
	return trace
}

// bandDepthNotional sums price*size while successive levels stay inside the
// band. Levels arrive sorted best-to-worst, so the walk stops at the first
// level outside instead of scanning the whole side.
func bandDepthNotional(levels []domain.OrderBookEntry, bound float64, isBid bool) float64 {
	total := 0.0
	for _, lvl := range levels {
		if isBid {
			if lvl.Price < bound {
				break
			}
		} else {
			if lvl.Price > bound {
				break
			}
		}
		total += lvl.Price * lvl.Size
	}
	return total
}
