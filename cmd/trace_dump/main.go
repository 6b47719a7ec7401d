package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/crypto_crash_risk/internal/infrastructure/storage"
)

// Prints stored trace reports for a coin, newest first. Handy for inspecting
// why a state changed without attaching to the live dashboard.
func main() {
	dbPath := flag.String("db", "crash_risk.db", "path to sqlite database")
	coin := flag.String("coin", "", "coin symbol (required)")
	limit := flag.Int("limit", 5, "number of records to print")
	flag.Parse()

	if *coin == "" {
		fmt.Println("usage: trace_dump -coin BTC [-db crash_risk.db] [-limit 5]")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.ListRecords(context.Background(), *coin, *limit)
	if err != nil {
		fmt.Printf("Failed to list records: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Printf("No records for %s\n", *coin)
		return
	}

	for _, r := range records {
		fmt.Printf("[%s] %s state=%s mark=%.4f\n", r.CycleTime.Format("2006-01-02 15:04:05"), r.Coin, r.State, r.MarkPrice)
		fmt.Println(r.TraceText)
		fmt.Println("------------------------------------------------------------")
	}
}
