package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/infrastructure/exchange"
)

// Exercises every data source against a live venue for one coin. Useful to
// verify connectivity and payload shapes before pointing the monitor at it.
func main() {
	infoURL := flag.String("url", exchange.DefaultInfoURL, "venue info endpoint")
	coin := flag.String("coin", "BTC", "coin symbol")
	flag.Parse()

	registry := exchange.NewRegistry()
	registry.AddVenue("venue", *infoURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("Checking sources for %s at %s\n\n", *coin, *infoURL)

	ctxs, err := registry.AssetContexts(ctx, "venue")
	if err != nil {
		fmt.Printf("asset contexts: FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("asset contexts: %d symbols\n", len(ctxs))
	ac, ok := ctxs[*coin]
	if !ok {
		fmt.Printf("%s: not found on venue\n", *coin)
		os.Exit(1)
	}
	fmt.Printf("%s: mark=%.4f", *coin, ac.MarkPrice)
	if ac.FundingRate != nil {
		fmt.Printf(" funding=%.8f", *ac.FundingRate)
	}
	if ac.OpenInterestUsd != nil {
		fmt.Printf(" oi_usd=%.0f", *ac.OpenInterestUsd)
	}
	if ac.DayNotionalVolumeUsd != nil {
		fmt.Printf(" day_vlm_usd=%.0f", *ac.DayNotionalVolumeUsd)
	}
	fmt.Printf(" impact=%v\n", ac.Impact != nil)

	caps, err := registry.SymbolsAtCap(ctx, "venue")
	if err != nil {
		fmt.Printf("oi caps: FAILED: %v\n", err)
	} else {
		fmt.Printf("oi caps: %d symbols at cap (this coin: %t)\n", len(caps), caps[*coin])
	}

	hist, err := registry.FundingHistory(ctx, "venue", *coin, time.Now().Add(-24*time.Hour))
	if err != nil {
		fmt.Printf("funding history: FAILED: %v\n", err)
	} else {
		fmt.Printf("funding history: %d samples over 24h\n", len(hist))
	}

	for _, interval := range []string{"15m", "1h"} {
		candles, err := registry.Candles(ctx, "venue", *coin, interval, time.Now().Add(-5*time.Hour), time.Now())
		if err != nil {
			fmt.Printf("candles %s: FAILED: %v\n", interval, err)
		} else {
			fmt.Printf("candles %s: %d bars\n", interval, len(candles))
		}
	}

	book, err := registry.OrderBook(ctx, "venue", *coin)
	if err != nil {
		fmt.Printf("order book: FAILED: %v\n", err)
	} else {
		fmt.Printf("order book: %d bids / %d asks\n", len(book.Bids), len(book.Asks))
	}
}
