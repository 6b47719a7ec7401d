package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/domain"
)

const DefaultInfoURL = "https://api.hyperliquid.xyz/info"

// HyperliquidClient talks to one Hyperliquid-style info endpoint. All reads
// go through a single POST /info route with a typed request body.
type HyperliquidClient struct {
	infoURL string
	client  *http.Client
}

func NewHyperliquidClient(infoURL string) *HyperliquidClient {
	if infoURL == "" {
		infoURL = DefaultInfoURL
	}
	return &HyperliquidClient{
		infoURL: infoURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HyperliquidClient) post(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.infoURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("info API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// --- asset contexts ---

type hlMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type hlAssetCtx struct {
	MarkPx       string   `json:"markPx"`
	Funding      string   `json:"funding"`
	OpenInterest string   `json:"openInterest"`
	DayNtlVlm    string   `json:"dayNtlVlm"`
	ImpactPxs    []string `json:"impactPxs"`
}

// AssetContexts fetches per-symbol market context. Symbols the venue does
// not list are simply absent from the map; callers treat that as not found.
func (c *HyperliquidClient) AssetContexts(ctx context.Context) (map[string]domain.AssetContext, error) {
	body, err := c.post(ctx, map[string]interface{}{"type": "metaAndAssetCtxs"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset contexts: %w", err)
	}

	var raw [2]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed metaAndAssetCtxs response: %w", err)
	}
	var meta hlMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return nil, fmt.Errorf("malformed meta: %w", err)
	}
	var ctxs []hlAssetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return nil, fmt.Errorf("malformed asset contexts: %w", err)
	}
	if len(ctxs) != len(meta.Universe) {
		return nil, fmt.Errorf("universe/context length mismatch: %d vs %d", len(meta.Universe), len(ctxs))
	}

	out := make(map[string]domain.AssetContext, len(ctxs))
	for i, a := range ctxs {
		symbol := meta.Universe[i].Name

		markPx := parseFinite(a.MarkPx)
		if markPx == nil {
			// Without a mark price nothing downstream can be computed;
			// treat the symbol as not listed this cycle.
			continue
		}

		ac := domain.AssetContext{
			Symbol:               symbol,
			MarkPrice:            *markPx,
			FundingRate:          parseFinite(a.Funding),
			DayNotionalVolumeUsd: parseFinite(a.DayNtlVlm),
		}
		// Open interest arrives in base units; convert to USD notional.
		if oi := parseFinite(a.OpenInterest); oi != nil {
			usd := *oi * *markPx
			ac.OpenInterestUsd = &usd
		}
		if len(a.ImpactPxs) == 2 {
			bid := parseFinite(a.ImpactPxs[0])
			ask := parseFinite(a.ImpactPxs[1])
			if bid != nil && ask != nil {
				ac.Impact = &domain.ImpactPrices{Bid: *bid, Ask: *ask}
			}
		}
		out[symbol] = ac
	}
	return out, nil
}

// SymbolsAtCap returns the set of symbols at the venue's open-interest cap.
func (c *HyperliquidClient) SymbolsAtCap(ctx context.Context) (map[string]bool, error) {
	body, err := c.post(ctx, map[string]interface{}{"type": "perpsAtOpenInterestCap"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open interest caps: %w", err)
	}

	var symbols []string
	if err := json.Unmarshal(body, &symbols); err != nil {
		return nil, fmt.Errorf("malformed open interest cap response: %w", err)
	}
	out := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		out[s] = true
	}
	return out, nil
}

// --- funding history ---

type hlFundingEntry struct {
	Coin        string `json:"coin"`
	FundingRate string `json:"fundingRate"`
	Time        int64  `json:"time"`
}

func (c *HyperliquidClient) FundingHistory(ctx context.Context, symbol string, start time.Time) ([]domain.FundingSample, error) {
	body, err := c.post(ctx, map[string]interface{}{
		"type":      "fundingHistory",
		"coin":      symbol,
		"startTime": start.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding history for %s: %w", symbol, err)
	}

	var entries []hlFundingEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("malformed funding history for %s: %w", symbol, err)
	}

	samples := make([]domain.FundingSample, 0, len(entries))
	for _, e := range entries {
		rate := parseFinite(e.FundingRate)
		if rate == nil {
			continue
		}
		samples = append(samples, domain.FundingSample{Time: e.Time, Rate: *rate})
	}
	return samples, nil
}

// --- candles ---

type hlCandle struct {
	T int64  `json:"t"`
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
	V string `json:"v"`
}

func (c *HyperliquidClient) Candles(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Candle, error) {
	body, err := c.post(ctx, map[string]interface{}{
		"type": "candleSnapshot",
		"req": map[string]interface{}{
			"coin":      symbol,
			"interval":  interval,
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s candles for %s: %w", interval, symbol, err)
	}

	var raw []hlCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed candle response for %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, rc := range raw {
		o, h, l, cl, v := parseFinite(rc.O), parseFinite(rc.H), parseFinite(rc.L), parseFinite(rc.C), parseFinite(rc.V)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		candle := domain.Candle{Time: rc.T, Open: *o, High: *h, Low: *l, Close: *cl}
		if v != nil {
			candle.Volume = *v
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// --- order book ---

type hlBookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

type hlBook struct {
	Coin   string          `json:"coin"`
	Levels [][]hlBookLevel `json:"levels"`
}

func (c *HyperliquidClient) OrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	body, err := c.post(ctx, map[string]interface{}{"type": "l2Book", "coin": symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order book for %s: %w", symbol, err)
	}

	var raw hlBook
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed order book for %s: %w", symbol, err)
	}
	if len(raw.Levels) != 2 {
		return nil, fmt.Errorf("unexpected order book shape for %s", symbol)
	}

	book := &domain.OrderBook{Symbol: symbol}
	book.Bids = parseBookSide(raw.Levels[0])
	book.Asks = parseBookSide(raw.Levels[1])
	return book, nil
}

func parseBookSide(levels []hlBookLevel) []domain.OrderBookEntry {
	out := make([]domain.OrderBookEntry, 0, len(levels))
	for _, lvl := range levels {
		px := parseFinite(lvl.Px)
		sz := parseFinite(lvl.Sz)
		if px == nil || sz == nil {
			continue
		}
		out = append(out, domain.OrderBookEntry{Price: *px, Size: *sz})
	}
	return out
}

// parseFinite parses a decimal string, returning nil on anything that is not
// a finite number. Upstream payloads occasionally carry "NaN" or empty
// strings; those must degrade to missing data, not blow up a pillar.
func parseFinite(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
