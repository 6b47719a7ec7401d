package usecase_test

import (
	"math"
	"testing"

	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
)

// history with mean 0.001 and sample stddev 0.002.
func fundingFixture() []domain.FundingSample {
	return []domain.FundingSample{
		{Time: 1, Rate: -0.001},
		{Time: 2, Rate: 0.001},
		{Time: 3, Rate: 0.003},
	}
}

func TestCrowdingDetector_AnomalousFundingAtCap(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate:       fptr(0.01),
		FundingHistory:    fundingFixture(),
		AtOpenInterestCap: true,
	}

	got := detector.Evaluate(snap)

	if !got.ZDefined {
		t.Fatal("z-score should be defined with 3 samples")
	}
	// z = (0.01 - 0.001) / 0.002
	if math.Abs(got.ZScore-4.5) > 1e-9 {
		t.Errorf("ZScore = %f, want 4.5", got.ZScore)
	}
	if got.Direction != domain.LongCrowded {
		t.Errorf("Direction = %s, want LONG_CROWDED", got.Direction)
	}
	if !got.Raw {
		t.Error("expected raw crowding signal")
	}
}

func TestCrowdingDetector_AnomalousButNotAtCap(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate:       fptr(0.01),
		FundingHistory:    fundingFixture(),
		AtOpenInterestCap: false,
	}

	got := detector.Evaluate(snap)

	if got.Raw {
		t.Error("anomalous funding without the cap must not signal")
	}
	if got.Reason == "" {
		t.Error("expected an explanatory reason")
	}
}

func TestCrowdingDetector_NegativeZIsShortCrowded(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate:       fptr(-0.01),
		FundingHistory:    fundingFixture(),
		AtOpenInterestCap: true,
	}

	got := detector.Evaluate(snap)

	if got.Direction != domain.ShortCrowded {
		t.Errorf("Direction = %s, want SHORT_CROWDED", got.Direction)
	}
	if !got.Raw {
		t.Error("expected raw signal on the short side")
	}
}

func TestCrowdingDetector_InsufficientHistory(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate:       fptr(0.01),
		FundingHistory:    []domain.FundingSample{{Time: 1, Rate: 0.001}},
		AtOpenInterestCap: true,
	}

	got := detector.Evaluate(snap)

	if got.Raw || got.ZDefined {
		t.Error("one sample must leave the z-score undefined")
	}
	if got.Reason == "" {
		t.Error("expected a reason for degrading")
	}
}

func TestCrowdingDetector_ZeroVariance(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate: fptr(0.01),
		FundingHistory: []domain.FundingSample{
			{Time: 1, Rate: 0.001},
			{Time: 2, Rate: 0.001},
			{Time: 3, Rate: 0.001},
		},
		AtOpenInterestCap: true,
	}

	got := detector.Evaluate(snap)

	if got.Raw || got.ZDefined {
		t.Error("constant history has no defined z-score")
	}
	if got.Reason != "zero variance in funding history" {
		t.Errorf("Reason = %q", got.Reason)
	}
}

func TestCrowdingDetector_FetchFailureDegrades(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingRate:       fptr(0.01),
		AtOpenInterestCap: true,
		SourceErrors:      map[string]string{usecase.SourceFundingHistory: "timeout"},
	}

	got := detector.Evaluate(snap)

	if got.Raw {
		t.Error("a failed fetch must never produce a raw signal")
	}
	if got.Reason != "funding history fetch failed: timeout" {
		t.Errorf("Reason = %q", got.Reason)
	}
}

func TestCrowdingDetector_MissingFundingRate(t *testing.T) {
	detector := usecase.NewCrowdingDetector()
	snap := &domain.MarketSnapshot{
		FundingHistory:    fundingFixture(),
		AtOpenInterestCap: true,
	}

	got := detector.Evaluate(snap)

	if got.Raw {
		t.Error("missing funding rate must not signal")
	}
	if got.Reason != "funding rate unavailable" {
		t.Errorf("Reason = %q", got.Reason)
	}
}
