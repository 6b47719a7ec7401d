package usecase_test

import (
	"context"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

func fptr(v float64) *float64 { return &v }

// mockSources implements all five data source interfaces from one struct so
// tests can wire the whole engine against a single fixture.
type mockSources struct {
	Contexts    map[string]domain.AssetContext
	ContextsErr error
	Caps        map[string]bool
	CapsErr     error
	Funding     []domain.FundingSample
	FundingErr  error
	Candles15m  []domain.Candle
	Candles1h   []domain.Candle
	CandlesErr  map[string]error
	Book        *domain.OrderBook
	BookErr     error
}

func (m *mockSources) AssetContexts(ctx context.Context, venue string) (map[string]domain.AssetContext, error) {
	if m.ContextsErr != nil {
		return nil, m.ContextsErr
	}
	return m.Contexts, nil
}

func (m *mockSources) SymbolsAtCap(ctx context.Context, venue string) (map[string]bool, error) {
	if m.CapsErr != nil {
		return nil, m.CapsErr
	}
	return m.Caps, nil
}

func (m *mockSources) FundingHistory(ctx context.Context, venue, symbol string, start time.Time) ([]domain.FundingSample, error) {
	if m.FundingErr != nil {
		return nil, m.FundingErr
	}
	return m.Funding, nil
}

func (m *mockSources) Candles(ctx context.Context, venue, symbol, interval string, start, end time.Time) ([]domain.Candle, error) {
	if err := m.CandlesErr[interval]; err != nil {
		return nil, err
	}
	if interval == "15m" {
		return m.Candles15m, nil
	}
	return m.Candles1h, nil
}

func (m *mockSources) OrderBook(ctx context.Context, venue, symbol string) (*domain.OrderBook, error) {
	if m.BookErr != nil {
		return nil, m.BookErr
	}
	return m.Book, nil
}

// candlesWithCloses builds a minimal candle series with the given closes.
func candlesWithCloses(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{Time: int64(i), Close: c}
	}
	return out
}
