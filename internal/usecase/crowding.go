package usecase

import (
	"fmt"
	"math"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

const (
	// ZScoreThreshold is how far the current funding rate must sit from its
	// trailing 24h mean, in standard deviations, to count as anomalous.
	ZScoreThreshold = 1.5
	// MinFundingSamples below which the z-score is undefined.
	MinFundingSamples = 2
)

// Source names used in MarketSnapshot.SourceErrors.
const (
	SourceFundingHistory = "funding_history"
	SourceCandles15m     = "candles_15m"
	SourceCandles1h      = "candles_1h"
	SourceOrderBook      = "order_book"
	SourceAssetContext   = "asset_context"
	SourceOICaps         = "oi_caps"
)

// CrowdingDetector flags one-sided leverage: an anomalous funding rate while
// the coin sits at its open-interest cap. Fetch failures degrade to a false
// raw signal with a reason; they never propagate out of the pillar.
type CrowdingDetector struct{}

func NewCrowdingDetector() *CrowdingDetector {
	return &CrowdingDetector{}
}

func (d *CrowdingDetector) Evaluate(snap *domain.MarketSnapshot) domain.CrowdingTrace {
	trace := domain.CrowdingTrace{
		Evaluated:         true,
		FundingRate:       snap.FundingRate,
		HistorySamples:    len(snap.FundingHistory),
		ZThreshold:        ZScoreThreshold,
		AtOpenInterestCap: snap.AtOpenInterestCap,
		Direction:         domain.Neutral,
	}

	if reason := snap.SourceError(SourceFundingHistory); reason != "" {
		trace.Reason = fmt.Sprintf("funding history fetch failed: %s", reason)
		return trace
	}
	if snap.FundingRate == nil {
		trace.Reason = "funding rate unavailable"
		return trace
	}
	if len(snap.FundingHistory) < MinFundingSamples {
		trace.Reason = fmt.Sprintf("insufficient funding history (%d samples)", len(snap.FundingHistory))
		return trace
	}

	rates := make([]float64, len(snap.FundingHistory))
	for i, s := range snap.FundingHistory {
		rates[i] = s.Rate
	}
	trace.Mean = mean(rates)
	trace.StdDev = sampleStdDev(rates, trace.Mean)

	if trace.StdDev <= 0 {
		trace.Reason = "zero variance in funding history"
		return trace
	}

	trace.ZDefined = true
	trace.ZScore = (*snap.FundingRate - trace.Mean) / trace.StdDev

	if trace.ZScore > 0 {
		trace.Direction = domain.LongCrowded
	} else if trace.ZScore < 0 {
		trace.Direction = domain.ShortCrowded
	}

	trace.Raw = math.Abs(trace.ZScore) >= ZScoreThreshold && snap.AtOpenInterestCap
	if !trace.Raw && math.Abs(trace.ZScore) >= ZScoreThreshold && !snap.AtOpenInterestCap {
		trace.Reason = "funding anomalous but not at open interest cap"
	}
	return trace
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev uses the unbiased n-1 denominator.
func sampleStdDev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
