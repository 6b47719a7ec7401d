package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/crypto_crash_risk/internal/domain"
	"github.com/vitos/crypto_crash_risk/internal/usecase"
	"go.uber.org/zap"
)

// RiskProvider is the slice of the engine the dashboard needs.
type RiskProvider interface {
	Records() []*domain.RiskRecord
	Record(coin string) (*domain.RiskRecord, bool)
	SetCoins(coins []usecase.CoinRef)
	Coins() []usecase.CoinRef
}

type Server struct {
	router   *http.ServeMux
	server   *http.Server
	provider RiskProvider
	history  domain.RiskRecordRepository // may be nil
	hub      *Hub
	logger   *zap.Logger
}

func NewServer(
	port int,
	provider RiskProvider,
	history domain.RiskRecordRepository,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		provider: provider,
		history:  history,
		hub:      hub,
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Risk states
	s.router.HandleFunc("GET /api/risk", s.handleListRisk)
	s.router.HandleFunc("GET /api/risk/{coin}", s.handleGetRisk)
	s.router.HandleFunc("GET /api/risk/{coin}/trace", s.handleGetTrace)

	// Watch list
	s.router.HandleFunc("GET /api/coins", s.handleListCoins)
	s.router.HandleFunc("POST /api/coins", s.handleSetCoins)

	// History
	s.router.HandleFunc("GET /api/history", s.handleHistory)

	// Live updates
	s.router.HandleFunc("GET /ws", s.handleWS)

	// Ops
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
