package usecase_test

import (
	"testing"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
)

func TestHysteresis_FirstObservationApplies(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	mem := &usecase.CoinMemoryState{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := guard.Apply(mem, domain.StateOrange, now)

	if got.Effective != domain.StateOrange || got.Blocked {
		t.Errorf("first state should apply directly, got %+v", got)
	}
	if !mem.EnteredAt.Equal(now) {
		t.Error("EnteredAt not set on first observation")
	}
}

func TestHysteresis_UpgradeIsImmediate(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := &usecase.CoinMemoryState{LastState: domain.StateGreen, EnteredAt: now}

	got := guard.Apply(mem, domain.StateRed, now.Add(time.Second))

	if got.Effective != domain.StateRed || got.Blocked {
		t.Errorf("upgrade must apply immediately, got %+v", got)
	}
}

func TestHysteresis_DowngradeFromRedHeld(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	entered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := &usecase.CoinMemoryState{LastState: domain.StateRed, EnteredAt: entered}

	got := guard.Apply(mem, domain.StateGreen, entered.Add(10*time.Minute))

	if !got.Blocked {
		t.Fatal("downgrade inside the 30m hold must be blocked")
	}
	if got.Effective != domain.StateRed {
		t.Errorf("Effective = %s, want RED", got.Effective)
	}
	if got.HoldRemaining != 20*time.Minute {
		t.Errorf("HoldRemaining = %s, want 20m", got.HoldRemaining)
	}
	if !mem.EnteredAt.Equal(entered) {
		t.Error("a blocked downgrade must not move EnteredAt")
	}
}

func TestHysteresis_DowngradeAfterHoldApplies(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	entered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := &usecase.CoinMemoryState{LastState: domain.StateRed, EnteredAt: entered}
	now := entered.Add(usecase.HoldLeavingRed)

	got := guard.Apply(mem, domain.StateGreen, now)

	if got.Blocked || got.Effective != domain.StateGreen {
		t.Errorf("downgrade at hold expiry must apply, got %+v", got)
	}
	if !mem.EnteredAt.Equal(now) {
		t.Error("EnteredAt should move on the actual transition")
	}
}

func TestHysteresis_OrangeHoldIsShorter(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	entered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mem := &usecase.CoinMemoryState{LastState: domain.StateOrange, EnteredAt: entered}
	got := guard.Apply(mem, domain.StateGreen, entered.Add(10*time.Minute))
	if !got.Blocked {
		t.Error("downgrade inside the 15m orange hold must be blocked")
	}

	mem = &usecase.CoinMemoryState{LastState: domain.StateOrange, EnteredAt: entered}
	got = guard.Apply(mem, domain.StateGreen, entered.Add(16*time.Minute))
	if got.Blocked {
		t.Error("downgrade after the orange hold must apply")
	}
}

func TestHysteresis_UnsupportedBypassesHold(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	entered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := &usecase.CoinMemoryState{LastState: domain.StateRed, EnteredAt: entered}

	got := guard.Apply(mem, domain.StateUnsupported, entered.Add(time.Minute))

	if got.Blocked || got.Effective != domain.StateUnsupported {
		t.Errorf("loss of data must apply immediately, got %+v", got)
	}
}

func TestHysteresis_SameStateKeepsEnteredAt(t *testing.T) {
	guard := usecase.NewHysteresisGuard()
	entered := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem := &usecase.CoinMemoryState{LastState: domain.StateRed, EnteredAt: entered}

	guard.Apply(mem, domain.StateRed, entered.Add(5*time.Minute))

	if !mem.EnteredAt.Equal(entered) {
		t.Error("re-confirming the same state must not restart the hold")
	}
}
