package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/crypto_crash_risk/internal/infrastructure/exchange"
	"github.com/vitos/crypto_crash_risk/internal/infrastructure/logger"
	"github.com/vitos/crypto_crash_risk/internal/infrastructure/storage"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
	"github.com/vitos/crypto_crash_risk/internal/web"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Venues []struct {
		Name    string `yaml:"name"`
		InfoURL string `yaml:"info_url"`
	} `yaml:"venues"`
	Coins   []usecase.CoinRef `yaml:"coins"`
	Polling struct {
		CycleIntervalSec int `yaml:"cycle_interval_sec"`
	} `yaml:"polling"`
	Logging struct {
		Level    string `yaml:"level"`
		AuditLog string `yaml:"audit_log"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	engineLog := log
	if cfg.Logging.AuditLog != "" {
		fileLog, err := logger.NewFileLogger(cfg.Logging.AuditLog, "debug")
		if err != nil {
			log.Error("Failed to init audit logger, using default", zap.Error(err))
		} else {
			engineLog = fileLog
		}
	}

	// 3. Init Storage (optional)
	var history *storage.SQLiteStore
	if cfg.Storage.Path != "" {
		history, err = storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer history.Close()
	}

	// 4. Init Venue Sources
	if len(cfg.Venues) == 0 {
		log.Fatal("No venues configured")
	}
	registry := exchange.NewRegistry()
	for _, v := range cfg.Venues {
		registry.AddVenue(v.Name, v.InfoURL)
	}

	// 5. Init Engine
	sources := usecase.Sources{
		Assets:  registry,
		OICaps:  registry,
		Funding: registry,
		Candles: registry,
		Books:   registry,
	}
	var engine *usecase.Engine
	if history != nil {
		engine = usecase.NewEngine(sources, history, engineLog)
	} else {
		engine = usecase.NewEngine(sources, nil, engineLog)
	}
	engine.SetCoins(cfg.Coins)

	// 6. Init Web Server + Hub
	hub := web.NewHub(log)
	go hub.Run()
	engine.SetOnUpdate(hub.BroadcastRisk)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	var server *web.Server
	if history != nil {
		server = web.NewServer(port, engine, history, hub, log)
	} else {
		server = web.NewServer(port, engine, nil, hub, log)
	}

	// 7. Run Engine Loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Polling.CycleIntervalSec) * time.Second
	go engine.Run(ctx, interval)

	// 8. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}
