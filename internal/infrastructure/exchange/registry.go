package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

// Registry routes source calls to the client for the named settlement venue.
// It implements every source interface the risk engine consumes.
type Registry struct {
	clients map[string]*HyperliquidClient
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*HyperliquidClient)}
}

func (r *Registry) AddVenue(name, infoURL string) {
	r.clients[name] = NewHyperliquidClient(infoURL)
}

func (r *Registry) Venues() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

func (r *Registry) client(venue string) (*HyperliquidClient, error) {
	c, ok := r.clients[venue]
	if !ok {
		return nil, fmt.Errorf("unknown venue %q", venue)
	}
	return c, nil
}

func (r *Registry) AssetContexts(ctx context.Context, venue string) (map[string]domain.AssetContext, error) {
	c, err := r.client(venue)
	if err != nil {
		return nil, err
	}
	return c.AssetContexts(ctx)
}

func (r *Registry) SymbolsAtCap(ctx context.Context, venue string) (map[string]bool, error) {
	c, err := r.client(venue)
	if err != nil {
		return nil, err
	}
	return c.SymbolsAtCap(ctx)
}

func (r *Registry) FundingHistory(ctx context.Context, venue, symbol string, start time.Time) ([]domain.FundingSample, error) {
	c, err := r.client(venue)
	if err != nil {
		return nil, err
	}
	return c.FundingHistory(ctx, symbol, start)
}

func (r *Registry) Candles(ctx context.Context, venue, symbol, interval string, start, end time.Time) ([]domain.Candle, error) {
	c, err := r.client(venue)
	if err != nil {
		return nil, err
	}
	return c.Candles(ctx, symbol, interval, start, end)
}

func (r *Registry) OrderBook(ctx context.Context, venue, symbol string) (*domain.OrderBook, error) {
	c, err := r.client(venue)
	if err != nil {
		return nil, err
	}
	return c.OrderBook(ctx, symbol)
}
