package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
	"go.uber.org/zap"
)

// crowdedSources builds a fixture where BTC is eligible, long-crowded at the
// open interest cap, broken on the 15m horizon and thin on impact cost. Left
// running it converges to RED after the confirmation cycles.
func crowdedSources() *mockSources {
	ctx := domain.AssetContext{
		Symbol:               "BTC",
		MarkPrice:            100,
		FundingRate:          fptr(0.01),
		OpenInterestUsd:      fptr(50_000_000),
		DayNotionalVolumeUsd: fptr(100_000_000),
		Impact:               &domain.ImpactPrices{Bid: 99.5, Ask: 100.0},
	}
	ethCtx := ctx
	ethCtx.Symbol = "ETH"
	return &mockSources{
		Contexts:   map[string]domain.AssetContext{"BTC": ctx, "ETH": ethCtx},
		Caps:       map[string]bool{"BTC": true, "ETH": true},
		Funding:    fundingFixture(),
		Candles15m: candlesWithCloses(100, 99.2),
		Candles1h:  candlesWithCloses(100, 100.5),
	}
}

func newTestEngine(m *mockSources) (*usecase.Engine, *fakeClock) {
	engine := usecase.NewEngine(usecase.Sources{
		Assets:  m,
		OICaps:  m,
		Funding: m,
		Candles: m,
		Books:   m,
	}, nil, zap.NewNop())

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	engine.SetClock(clock.Now)
	return engine, clock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestEngine_TwoCycleConfirmationToRed(t *testing.T) {
	engine, clock := newTestEngine(crowdedSources())
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	require.NoError(t, engine.RunCycle(context.Background()))

	rec, ok := engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateGreen, rec.State, "one raw cycle must not leave GREEN")
	require.Equal(t, 3, rec.Trace.Resolution.Rule)
	require.Equal(t, "crowding not confirmed", rec.Trace.Structure.Reason)

	clock.Advance(15 * time.Second)
	require.NoError(t, engine.RunCycle(context.Background()))

	rec, ok = engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateRed, rec.State, "confirmed crowding with broken structure and thin book is RED")
	require.Equal(t, 6, rec.Trace.Resolution.Rule)
	require.Equal(t, domain.StructureBroken, rec.Trace.Structure.State)
	require.Equal(t, "impact", rec.Trace.Liquidity.Path)
	require.Equal(t, domain.StateRed.DotColor(), rec.DotColor)
	require.Equal(t, domain.StateRed.Message(), rec.Message)
}

func TestEngine_FundingFailureDegradesOnlyCrowding(t *testing.T) {
	m := crowdedSources()
	m.FundingErr = errors.New("connection refused")
	engine, clock := newTestEngine(m)
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	require.NoError(t, engine.RunCycle(context.Background()))
	clock.Advance(15 * time.Second)
	require.NoError(t, engine.RunCycle(context.Background()))

	rec, ok := engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateGreen, rec.State)
	require.Contains(t, rec.Trace.Crowding.Reason, "funding history fetch failed")
	require.False(t, rec.Trace.Crowding.Raw)
	require.True(t, rec.Trace.Liquidity.Evaluated, "a funding outage must not touch the liquidity pillar")
	require.True(t, rec.Trace.Liquidity.Confirmed)
}

func TestEngine_AssetContextFailureIsUnsupported(t *testing.T) {
	m := crowdedSources()
	m.ContextsErr = errors.New("http 503")
	engine, _ := newTestEngine(m)
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	require.NoError(t, engine.RunCycle(context.Background()))

	rec, ok := engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateUnsupported, rec.State)
	require.True(t, rec.Trace.Universe.DataUnavailable)
	require.Equal(t, 1, rec.Trace.Resolution.Rule)
}

func TestEngine_CoinSetChangeDropsRemovedCoin(t *testing.T) {
	engine, clock := newTestEngine(crowdedSources())
	engine.SetCoins([]usecase.CoinRef{
		{Symbol: "BTC", Venue: "hyperliquid"},
		{Symbol: "ETH", Venue: "hyperliquid"},
	})

	require.NoError(t, engine.RunCycle(context.Background()))
	require.Len(t, engine.Records(), 2)

	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})
	clock.Advance(15 * time.Second)
	require.NoError(t, engine.RunCycle(context.Background()))

	records := engine.Records()
	require.Len(t, records, 1)
	require.Equal(t, "BTC", records[0].Coin)
	_, ok := engine.Record("ETH")
	require.False(t, ok)
}

func TestEngine_StalenessOverridesWithoutResettingMemory(t *testing.T) {
	engine, clock := newTestEngine(crowdedSources())
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	require.NoError(t, engine.RunCycle(context.Background()))
	clock.Advance(15 * time.Second)
	require.NoError(t, engine.RunCycle(context.Background()))

	rec, _ := engine.Record("BTC")
	require.Equal(t, domain.StateRed, rec.State)

	// Feed goes quiet past the staleness threshold.
	clock.Advance(61 * time.Second)
	rec, ok := engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateUnsupported, rec.State)
	require.True(t, rec.Trace.Stale)
	require.Equal(t, "data stale", rec.Trace.StaleReason)

	// Feed recovers; confirmation counters were never reset, so the very next
	// cycle is RED again rather than restarting the two-cycle climb.
	require.NoError(t, engine.RunCycle(context.Background()))
	rec, _ = engine.Record("BTC")
	require.Equal(t, domain.StateRed, rec.State)
	require.False(t, rec.Trace.Stale)
}

func TestEngine_CancelledCycleMutatesNothing(t *testing.T) {
	m := crowdedSources()
	engine, clock := newTestEngine(m)
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	require.NoError(t, engine.RunCycle(context.Background()))
	rec, _ := engine.Record("BTC")
	require.Equal(t, domain.StateGreen, rec.State)

	// This cycle would reset the crowding counter if its writes landed.
	m.FundingErr = errors.New("down")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	clock.Advance(15 * time.Second)
	require.Error(t, engine.RunCycle(cancelled))

	rec, ok := engine.Record("BTC")
	require.True(t, ok)
	require.Equal(t, domain.StateGreen, rec.State, "cancelled cycle must not replace records")

	// Counter picks up at 2, not 1: the aborted cycle never touched memory.
	m.FundingErr = nil
	clock.Advance(15 * time.Second)
	require.NoError(t, engine.RunCycle(context.Background()))
	rec, _ = engine.Record("BTC")
	require.Equal(t, domain.StateRed, rec.State)
}

func TestEngine_RecordsSortedByCoin(t *testing.T) {
	engine, _ := newTestEngine(crowdedSources())
	engine.SetCoins([]usecase.CoinRef{
		{Symbol: "ETH", Venue: "hyperliquid"},
		{Symbol: "BTC", Venue: "hyperliquid"},
	})

	require.NoError(t, engine.RunCycle(context.Background()))

	records := engine.Records()
	require.Len(t, records, 2)
	require.Equal(t, "BTC", records[0].Coin)
	require.Equal(t, "ETH", records[1].Coin)
}

func TestEngine_OnUpdateFiresPerCycle(t *testing.T) {
	engine, _ := newTestEngine(crowdedSources())
	engine.SetCoins([]usecase.CoinRef{{Symbol: "BTC", Venue: "hyperliquid"}})

	var got []*domain.RiskRecord
	engine.SetOnUpdate(func(records []*domain.RiskRecord) { got = records })

	require.NoError(t, engine.RunCycle(context.Background()))
	require.Len(t, got, 1)
	require.Equal(t, "BTC", got[0].Coin)
}
