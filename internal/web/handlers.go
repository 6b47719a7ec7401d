package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vitos/crypto_crash_risk/internal/usecase"
	"go.uber.org/zap"
)

func (s *Server) handleListRisk(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.provider.Records())
}

func (s *Server) handleGetRisk(w http.ResponseWriter, r *http.Request) {
	coin := r.PathValue("coin")
	record, ok := s.provider.Record(coin)
	if !ok {
		http.Error(w, "coin not tracked", http.StatusNotFound)
		return
	}
	s.writeJSON(w, record)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	coin := r.PathValue("coin")
	record, ok := s.provider.Record(coin)
	if !ok || record.Trace == nil {
		http.Error(w, "no trace for coin", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(usecase.RenderTrace(record.Trace))); err != nil {
		s.logger.Error("Failed to write trace", zap.Error(err))
	}
}

func (s *Server) handleListCoins(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.provider.Coins())
}

// handleSetCoins replaces the watch list; the engine reacts with an
// immediate evaluation cycle.
func (s *Server) handleSetCoins(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Coins []usecase.CoinRef `json:"coins"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	for _, c := range payload.Coins {
		if c.Symbol == "" || c.Venue == "" {
			http.Error(w, "coin entries need symbol and venue", http.StatusBadRequest)
			return
		}
	}

	s.provider.SetCoins(payload.Coins)
	s.logger.Info("Watch list updated", zap.Int("coins", len(payload.Coins)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	coin := r.URL.Query().Get("coin")
	if coin == "" {
		http.Error(w, "coin query parameter required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.history.ListRecords(r.Context(), coin, limit)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		http.Error(w, "failed to list history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ServeWS(s.hub, s.logger, w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
