package domain

import (
	"context"
	"time"
)

// AssetContextSource provides per-symbol market context for a venue.
// A missing symbol means "not found"; venue failures surface as errors that
// the engine degrades locally, never as panics.
type AssetContextSource interface {
	AssetContexts(ctx context.Context, venue string) (map[string]AssetContext, error)
}

// OpenInterestCapSource reports which symbols currently sit at the venue's
// open-interest cap.
type OpenInterestCapSource interface {
	SymbolsAtCap(ctx context.Context, venue string) (map[string]bool, error)
}

// FundingHistorySource returns time-ordered funding samples from start.
type FundingHistorySource interface {
	FundingHistory(ctx context.Context, venue, symbol string, start time.Time) ([]FundingSample, error)
}

// CandleSource returns time-ordered OHLCV candles for an interval ("15m", "1h").
type CandleSource interface {
	Candles(ctx context.Context, venue, symbol, interval string, start, end time.Time) ([]Candle, error)
}

// OrderBookSource returns best bid/ask plus depth, sorted best-to-worst.
type OrderBookSource interface {
	OrderBook(ctx context.Context, venue, symbol string) (*OrderBook, error)
}

// RiskRecordRepository persists emitted per-cycle records for the dashboard
// history view. The engine only writes; its own state stays in memory.
type RiskRecordRepository interface {
	SaveCycle(ctx context.Context, at time.Time, records []*RiskRecord) error
	ListRecords(ctx context.Context, coin string, limit int) ([]*StoredRiskRecord, error)
}
