package domain

// Candle is a single OHLCV bar.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// FundingSample is one historical funding rate observation.
type FundingSample struct {
	Time int64   `json:"time"`
	Rate float64 `json:"rate"`
}

type OrderBookEntry struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook holds depth levels sorted best-to-worst per side.
type OrderBook struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderBookEntry `json:"bids"`
	Asks   []OrderBookEntry `json:"asks"`
}

// ImpactPrices are the exchange-quoted execution prices for a reference-size
// order on each side. Their distance from mark price estimates slippage.
type ImpactPrices struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// AssetContext is the per-symbol slice of a venue's asset context response.
// Nullable fields stay nil when the venue omits them or sends garbage.
type AssetContext struct {
	Symbol               string        `json:"symbol"`
	MarkPrice            float64       `json:"mark_price"`
	FundingRate          *float64      `json:"funding_rate"`
	OpenInterestUsd      *float64      `json:"open_interest_usd"`
	DayNotionalVolumeUsd *float64      `json:"day_notional_volume_usd"`
	Impact               *ImpactPrices `json:"impact"`
}

// MarketSnapshot is everything fetched for one coin in one cycle. It is
// read-only input to the risk engine; the engine never mutates it.
type MarketSnapshot struct {
	Symbol string
	Venue  string

	AssetFound           bool
	MarkPrice            float64
	FundingRate          *float64
	OpenInterestUsd      *float64
	DayNotionalVolumeUsd *float64
	Impact               *ImpactPrices
	AtOpenInterestCap    bool

	FundingHistory []FundingSample
	Candles15m     []Candle
	Candles1h      []Candle

	// Book is fetched only when impact price data is absent.
	Book *OrderBook

	// SourceErrors records per-source fetch failures by source name
	// ("funding_history", "candles_15m", ...). A failed source degrades
	// only the pillar that owns it.
	SourceErrors map[string]string
}

// SourceError returns the recorded failure reason for a source, or "".
func (s *MarketSnapshot) SourceError(source string) string {
	if s.SourceErrors == nil {
		return ""
	}
	return s.SourceErrors[source]
}
