package usecase_test

import (
	"testing"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/usecase"
)

func TestStalenessMonitor(t *testing.T) {
	monitor := usecase.NewStalenessMonitor()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if monitor.Stale(now) {
		t.Error("never-succeeded monitor must not report stale")
	}

	monitor.MarkSuccess(now)

	if monitor.Stale(now.Add(usecase.StalenessThreshold)) {
		t.Error("exactly at the threshold is still fresh")
	}
	if !monitor.Stale(now.Add(usecase.StalenessThreshold + time.Second)) {
		t.Error("past the threshold must be stale")
	}

	monitor.MarkSuccess(now.Add(2 * time.Minute))
	if monitor.Stale(now.Add(2*time.Minute + 30*time.Second)) {
		t.Error("a fresh success must clear staleness")
	}
}
