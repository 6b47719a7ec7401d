package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
	"go.uber.org/zap"
)

// DefaultCycleInterval is the nominal spacing between evaluation cycles.
const DefaultCycleInterval = 15 * time.Second

// CoinRef identifies one tracked instrument on a settlement venue.
type CoinRef struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Venue  string `json:"venue" yaml:"venue"`
}

// Sources bundles the external data collaborators the engine consumes. The
// engine never fetches on its own schedule; everything happens inside a cycle.
type Sources struct {
	Assets  domain.AssetContextSource
	OICaps  domain.OpenInterestCapSource
	Funding domain.FundingHistorySource
	Candles domain.CandleSource
	Books   domain.OrderBookSource
}

// Engine runs the per-cycle crash-risk evaluation: universe gate, three
// pillars, confirmation, decision table, hysteresis. All cross-cycle state
// lives in the memory arena and is volatile.
type Engine struct {
	sources Sources
	history domain.RiskRecordRepository // optional, nil disables persistence
	logger  *zap.Logger

	universe   *UniverseFilter
	crowding   *CrowdingDetector
	structure  *StructureEvaluator
	liquidity  *LiquidityStressDetector
	hysteresis *HysteresisGuard
	staleness  *StalenessMonitor
	memory     *MemoryArena

	mu          sync.Mutex
	coins       []CoinRef
	records     map[string]*domain.RiskRecord
	cancelCycle context.CancelFunc

	// cycleMu serializes cycles: a new cycle cancels the in-flight one and
	// then waits here until it has fully unwound. Counters would corrupt if
	// two cycles ever interleaved.
	cycleMu sync.Mutex

	kick     chan struct{}
	timeNow  func() time.Time
	onUpdate func(records []*domain.RiskRecord)
}

func NewEngine(sources Sources, history domain.RiskRecordRepository, logger *zap.Logger) *Engine {
	return &Engine{
		sources:    sources,
		history:    history,
		logger:     logger,
		universe:   NewUniverseFilter(),
		crowding:   NewCrowdingDetector(),
		structure:  NewStructureEvaluator(),
		liquidity:  NewLiquidityStressDetector(),
		hysteresis: NewHysteresisGuard(),
		staleness:  NewStalenessMonitor(),
		memory:     NewMemoryArena(),
		records:    make(map[string]*domain.RiskRecord),
		kick:       make(chan struct{}, 1),
		timeNow:    time.Now,
	}
}

// SetOnUpdate registers a callback invoked with the full record set after
// every completed cycle and on staleness transitions.
func (e *Engine) SetOnUpdate(fn func(records []*domain.RiskRecord)) {
	e.onUpdate = fn
}

// SetClock replaces the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.timeNow = now
}

// SetCoins replaces the tracked coin set. A change cancels the in-flight
// cycle (its memory writes must not survive) and kicks an immediate one.
func (e *Engine) SetCoins(coins []CoinRef) {
	e.mu.Lock()
	changed := !equalCoinRefs(e.coins, coins)
	e.coins = append([]CoinRef(nil), coins...)
	if changed && e.cancelCycle != nil {
		e.cancelCycle()
	}
	e.mu.Unlock()

	if changed {
		select {
		case e.kick <- struct{}{}:
		default:
		}
	}
}

func (e *Engine) Coins() []CoinRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]CoinRef(nil), e.coins...)
}

// Run drives the tick loop: one cycle per interval, an immediate cycle on
// coin-set change, and a staleness watchdog. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCycleInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	staleTicker := time.NewTicker(time.Second)
	defer staleTicker.Stop()

	e.runCycleLogged(ctx)

	wasStale := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.kick:
			e.runCycleLogged(ctx)
		case <-ticker.C:
			e.runCycleLogged(ctx)
		case <-staleTicker.C:
			now := e.timeNow()
			if e.staleness.Stale(now) {
				if !wasStale {
					wasStale = true
					e.logger.Warn("Data stale, forcing all coins to UNSUPPORTED",
						zap.Time("last_success", e.staleness.LastSuccess()))
					if e.onUpdate != nil {
						e.onUpdate(e.Records())
					}
				}
			} else {
				wasStale = false
			}
		}
	}
}

func (e *Engine) runCycleLogged(ctx context.Context) {
	if err := e.RunCycle(ctx); err != nil {
		e.logger.Error("Evaluation cycle failed", zap.Error(err))
	}
}

// RunCycle executes one full evaluation cycle. A cycle that is cancelled or
// panics mutates no coin memory; the previous effective states stand until
// either a later cycle succeeds or the staleness watchdog fires.
func (e *Engine) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cyclesTotal.WithLabelValues("error").Inc()
			err = fmt.Errorf("cycle dropped after panic: %v", r)
		}
	}()

	e.mu.Lock()
	if e.cancelCycle != nil {
		e.cancelCycle()
	}
	cctx, cancel := context.WithCancel(ctx)
	e.cancelCycle = cancel
	coins := append([]CoinRef(nil), e.coins...)
	e.mu.Unlock()
	defer cancel()

	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	start := e.timeNow()
	snaps := e.fetchAll(cctx, coins)

	// All fetches are in; nothing below blocks. Memory must not change if
	// this cycle was cancelled while fetching.
	if cctx.Err() != nil {
		cyclesTotal.WithLabelValues("cancelled").Inc()
		return fmt.Errorf("cycle cancelled: %w", cctx.Err())
	}

	// One shared timestamp so cooldown and staleness math agree across every
	// coin evaluated in this cycle.
	now := e.timeNow()

	records := make([]*domain.RiskRecord, 0, len(coins))
	active := make(map[string]bool, len(coins))
	for _, coin := range coins {
		snap := snaps[coin.Symbol]
		mem := e.memory.Get(coin.Symbol, coin.Venue)
		records = append(records, e.evaluateCoin(snap, mem, now))
		active[coin.Symbol] = true
	}
	e.memory.Prune(active)
	e.staleness.MarkSuccess(now)

	byCoin := make(map[string]*domain.RiskRecord, len(records))
	for _, r := range records {
		byCoin[r.Coin] = r
	}
	e.mu.Lock()
	e.records = byCoin
	e.mu.Unlock()

	updateStateGauges(records)
	cycleDuration.Observe(e.timeNow().Sub(start).Seconds())
	cyclesTotal.WithLabelValues("ok").Inc()

	if e.history != nil {
		if herr := e.history.SaveCycle(cctx, now, records); herr != nil {
			e.logger.Warn("Failed to persist cycle records", zap.Error(herr))
		}
	}
	if e.onUpdate != nil {
		e.onUpdate(records)
	}

	e.logger.Debug("Cycle complete",
		zap.Int("coins", len(records)),
		zap.Duration("took", e.timeNow().Sub(start)))
	return nil
}

// perVenueData is the venue-wide half of the fetch: asset contexts and the
// open-interest cap set, shared by every coin on that venue.
type perVenueData struct {
	contexts    map[string]domain.AssetContext
	contextsErr string
	caps        map[string]bool
	capsErr     string
}

func (e *Engine) fetchAll(ctx context.Context, coins []CoinRef) map[string]*domain.MarketSnapshot {
	venues := make(map[string]*perVenueData)
	for _, c := range coins {
		venues[c.Venue] = &perVenueData{}
	}

	var wg sync.WaitGroup
	for name, vd := range venues {
		wg.Add(2)
		go func(name string, vd *perVenueData) {
			defer wg.Done()
			ctxs, err := e.sources.Assets.AssetContexts(ctx, name)
			if err != nil {
				vd.contextsErr = err.Error()
				fetchErrorsTotal.WithLabelValues(SourceAssetContext).Inc()
				return
			}
			vd.contexts = ctxs
		}(name, vd)
		go func(name string, vd *perVenueData) {
			defer wg.Done()
			caps, err := e.sources.OICaps.SymbolsAtCap(ctx, name)
			if err != nil {
				vd.capsErr = err.Error()
				fetchErrorsTotal.WithLabelValues(SourceOICaps).Inc()
				return
			}
			vd.caps = caps
		}(name, vd)
	}
	wg.Wait()

	snaps := make(map[string]*domain.MarketSnapshot, len(coins))
	for _, coin := range coins {
		snaps[coin.Symbol] = &domain.MarketSnapshot{
			Symbol:       coin.Symbol,
			Venue:        coin.Venue,
			SourceErrors: make(map[string]string),
		}
	}
	for _, coin := range coins {
		wg.Add(1)
		go func(coin CoinRef) {
			defer wg.Done()
			e.fetchCoin(ctx, snaps[coin.Symbol], venues[coin.Venue])
		}(coin)
	}
	wg.Wait()
	return snaps
}

// fetchCoin fills one snapshot. Each failed source records a reason and
// degrades only the pillar that owns it; nothing here aborts the cycle.
func (e *Engine) fetchCoin(ctx context.Context, snap *domain.MarketSnapshot, vd *perVenueData) {
	now := e.timeNow()

	if vd.contextsErr != "" {
		snap.SourceErrors[SourceAssetContext] = vd.contextsErr
	} else if c, ok := vd.contexts[snap.Symbol]; ok {
		snap.AssetFound = true
		snap.MarkPrice = c.MarkPrice
		snap.FundingRate = c.FundingRate
		snap.OpenInterestUsd = c.OpenInterestUsd
		snap.DayNotionalVolumeUsd = c.DayNotionalVolumeUsd
		snap.Impact = c.Impact
	}

	if vd.capsErr != "" {
		snap.SourceErrors[SourceOICaps] = vd.capsErr
	} else {
		snap.AtOpenInterestCap = vd.caps[snap.Symbol]
	}

	if !snap.AssetFound {
		return
	}

	hist, err := e.sources.Funding.FundingHistory(ctx, snap.Venue, snap.Symbol, now.Add(-24*time.Hour))
	if err != nil {
		snap.SourceErrors[SourceFundingHistory] = err.Error()
		fetchErrorsTotal.WithLabelValues(SourceFundingHistory).Inc()
	} else {
		snap.FundingHistory = hist
	}

	c15, err := e.sources.Candles.Candles(ctx, snap.Venue, snap.Symbol, "15m", now.Add(-90*time.Minute), now)
	if err != nil {
		snap.SourceErrors[SourceCandles15m] = err.Error()
		fetchErrorsTotal.WithLabelValues(SourceCandles15m).Inc()
	} else {
		snap.Candles15m = c15
	}

	c1h, err := e.sources.Candles.Candles(ctx, snap.Venue, snap.Symbol, "1h", now.Add(-5*time.Hour), now)
	if err != nil {
		snap.SourceErrors[SourceCandles1h] = err.Error()
		fetchErrorsTotal.WithLabelValues(SourceCandles1h).Inc()
	} else {
		snap.Candles1h = c1h
	}

	// The book matters only when the venue gave no impact prices.
	if snap.Impact == nil {
		book, err := e.sources.Books.OrderBook(ctx, snap.Venue, snap.Symbol)
		if err != nil {
			snap.SourceErrors[SourceOrderBook] = err.Error()
			fetchErrorsTotal.WithLabelValues(SourceOrderBook).Inc()
		} else {
			snap.Book = book
		}
	}
}

func (e *Engine) evaluateCoin(snap *domain.MarketSnapshot, mem *CoinMemoryState, now time.Time) *domain.RiskRecord {
	trace := &domain.RiskDecisionTrace{
		Symbol:    snap.Symbol,
		Venue:     snap.Venue,
		CycleTime: now,
	}
	trace.Universe = e.universe.Evaluate(snap)

	direction := domain.Neutral
	var crowdingConfirmed, liquidityConfirmed bool

	if trace.Universe.Eligible {
		ct := e.crowding.Evaluate(snap)
		crowdingConfirmed = mem.Crowding.Update(ct.Raw)
		ct.Counter = mem.Crowding.Count
		ct.Confirmed = crowdingConfirmed
		direction = ct.Direction
		trace.Crowding = ct

		lt := e.liquidity.Evaluate(snap)
		liquidityConfirmed = mem.Liquidity.Update(lt.Raw)
		lt.Counter = mem.Liquidity.Count
		lt.Confirmed = liquidityConfirmed
		trace.Liquidity = lt

		// Structure needs a confirmed crowding signal with a definite side;
		// anything less and there is no "crowded side" to measure against.
		if crowdingConfirmed && direction != domain.Neutral {
			trace.Structure = e.structure.Evaluate(snap, direction)
		} else {
			trace.Structure = domain.StructureTrace{
				Reason: "crowding not confirmed",
				State:  domain.StructureNA,
			}
		}
	} else {
		// Pillars are skipped entirely; a skipped pillar produces no raw
		// signal, which resets its confirmation counter.
		mem.Crowding.Update(false)
		mem.Liquidity.Update(false)
		reason := "universe ineligible"
		if trace.Universe.DataUnavailable {
			reason = "data unavailable"
		}
		trace.Crowding = domain.CrowdingTrace{Reason: reason, Direction: domain.Neutral}
		trace.Liquidity = domain.LiquidityTrace{Reason: reason, Path: "none"}
		trace.Structure = domain.StructureTrace{Reason: reason, State: domain.StructureNA}
	}

	trace.Resolution = ResolveState(ResolverInput{
		DataUnavailable:    trace.Universe.DataUnavailable,
		UniverseEligible:   trace.Universe.Eligible,
		CrowdingConfirmed:  crowdingConfirmed,
		Structure:          trace.Structure.State,
		LiquidityConfirmed: liquidityConfirmed,
	})
	trace.Hysteresis = e.hysteresis.Apply(mem, trace.Resolution.Computed, now)

	effective := trace.Hysteresis.Effective
	return &domain.RiskRecord{
		Coin:              snap.Symbol,
		Venue:             snap.Venue,
		State:             effective,
		Message:           effective.Message(),
		DotColor:          effective.DotColor(),
		Funding:           snap.FundingRate,
		OpenInterest:      snap.OpenInterestUsd,
		DayNotionalVolume: snap.DayNotionalVolumeUsd,
		MarkPrice:         snap.MarkPrice,
		Trace:             trace,
	}
}

// Records returns the latest per-coin records sorted by coin. When data has
// gone stale every record is overridden to UNSUPPORTED on the way out; coin
// memory is left untouched so a recovering feed resumes where it stopped.
func (e *Engine) Records() []*domain.RiskRecord {
	now := e.timeNow()
	stale := e.staleness.Stale(now)

	e.mu.Lock()
	records := make([]*domain.RiskRecord, 0, len(e.records))
	for _, r := range e.records {
		records = append(records, r)
	}
	e.mu.Unlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Coin < records[j].Coin })

	if !stale {
		return records
	}
	out := make([]*domain.RiskRecord, 0, len(records))
	for _, r := range records {
		out = append(out, staleOverride(r))
	}
	return out
}

// Record returns the latest record for one coin.
func (e *Engine) Record(coin string) (*domain.RiskRecord, bool) {
	now := e.timeNow()
	stale := e.staleness.Stale(now)

	e.mu.Lock()
	r, ok := e.records[coin]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	if stale {
		return staleOverride(r), true
	}
	return r, true
}

func staleOverride(r *domain.RiskRecord) *domain.RiskRecord {
	trace := *r.Trace
	trace.Stale = true
	trace.StaleReason = StaleReason

	out := *r
	out.State = domain.StateUnsupported
	out.Message = domain.StateUnsupported.Message()
	out.DotColor = domain.StateUnsupported.DotColor()
	out.Trace = &trace
	return &out
}

func updateStateGauges(records []*domain.RiskRecord) {
	counts := map[domain.RiskState]int{
		domain.StateGreen:       0,
		domain.StateOrange:      0,
		domain.StateRed:         0,
		domain.StateUnsupported: 0,
	}
	for _, r := range records {
		counts[r.State]++
	}
	for state, n := range counts {
		coinsPerState.WithLabelValues(string(state)).Set(float64(n))
	}
}

func equalCoinRefs(a, b []CoinRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
