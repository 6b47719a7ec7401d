package usecase_test

import (
	"testing"

	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
)

func TestUniverseFilter(t *testing.T) {
	filter := usecase.NewUniverseFilter()

	tests := []struct {
		name            string
		snap            domain.MarketSnapshot
		wantEligible    bool
		wantUnavailable bool
		wantFailed      int
	}{
		{
			name: "both thresholds cleared",
			snap: domain.MarketSnapshot{
				AssetFound:           true,
				DayNotionalVolumeUsd: fptr(30_000_000),
				OpenInterestUsd:      fptr(12_000_000),
			},
			wantEligible: true,
		},
		{
			name:            "asset not found",
			snap:            domain.MarketSnapshot{AssetFound: false},
			wantUnavailable: true,
			wantFailed:      1,
		},
		{
			name: "volume below minimum",
			snap: domain.MarketSnapshot{
				AssetFound:           true,
				DayNotionalVolumeUsd: fptr(10_000_000),
				OpenInterestUsd:      fptr(12_000_000),
			},
			wantFailed: 1,
		},
		{
			name: "volume exactly at minimum fails",
			snap: domain.MarketSnapshot{
				AssetFound:           true,
				DayNotionalVolumeUsd: fptr(usecase.MinDayNotionalUsd),
				OpenInterestUsd:      fptr(12_000_000),
			},
			wantFailed: 1,
		},
		{
			name: "open interest below minimum",
			snap: domain.MarketSnapshot{
				AssetFound:           true,
				DayNotionalVolumeUsd: fptr(30_000_000),
				OpenInterestUsd:      fptr(9_000_000),
			},
			wantFailed: 1,
		},
		{
			name: "missing volume is unavailable, not a threshold failure",
			snap: domain.MarketSnapshot{
				AssetFound:      true,
				OpenInterestUsd: fptr(12_000_000),
			},
			wantUnavailable: true,
			wantFailed:      1,
		},
		{
			name: "missing both",
			snap: domain.MarketSnapshot{
				AssetFound: true,
			},
			wantUnavailable: true,
			wantFailed:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Evaluate(&tt.snap)
			if got.Eligible != tt.wantEligible {
				t.Errorf("Eligible = %t, want %t", got.Eligible, tt.wantEligible)
			}
			if got.DataUnavailable != tt.wantUnavailable {
				t.Errorf("DataUnavailable = %t, want %t", got.DataUnavailable, tt.wantUnavailable)
			}
			if len(got.FailedChecks) != tt.wantFailed {
				t.Errorf("FailedChecks = %v, want %d entries", got.FailedChecks, tt.wantFailed)
			}
		})
	}
}
