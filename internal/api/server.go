package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/decisions"
	"fraudguard/internal/metrics"
	"fraudguard/internal/model"
)

type EngineControl interface {
	UpdateConfig(cfg *config.Config)
}

type Server struct {
	cfg       *config.Manager
	decisions *decisions.Store
	cases     *decisions.CaseStore
	engine    EngineControl
	logger    *slog.Logger
	version   string
}

type statusResponse struct {
	Status     string          `json:"status"`
	Time       string          `json:"time"`
	Version    string          `json:"version"`
	ConfigPath string          `json:"config_path"`
	Detection  detectionStatus `json:"detection"`
	Ingest     ingestStatus    `json:"ingest"`
	API        apiStatus       `json:"api"`
}

type detectionStatus struct {
	HomeCountry            string  `json:"home_country"`
	HighAmountThreshold    float64 `json:"high_amount_threshold"`
	ForeignAmountThreshold float64 `json:"foreign_amount_threshold"`
	HighRiskThreshold      float64 `json:"high_risk_threshold"`
	RapidFireWindow        string  `json:"rapid_fire_window"`
}

type ingestStatus struct {
	REST       bool `json:"rest"`
	Kafka      bool `json:"kafka"`
	FileReplay bool `json:"file_replay"`
	TCPStream  bool `json:"tcp_stream"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func Start(ctx context.Context, cfg *config.Manager, decisionStore *decisions.Store, caseStore *decisions.CaseStore, engine EngineControl, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:       cfg,
		decisions: decisionStore,
		cases:     caseStore,
		engine:    engine,
		logger:    logger,
		version:   version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/decisions", server.handleDecisions)
	mux.HandleFunc("/cases", server.handleCases)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/admin/clear", server.handleClear)
	mux.HandleFunc("/admin/reload", server.handleReload)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		Detection: detectionStatus{
			HomeCountry:            cfg.Detection.HomeCountry,
			HighAmountThreshold:    cfg.Detection.HighAmountThreshold,
			ForeignAmountThreshold: cfg.Detection.ForeignAmountThreshold,
			HighRiskThreshold:      cfg.Detection.HighRiskThreshold,
			RapidFireWindow:        cfg.Detection.RapidFire.Window.String(),
		},
		Ingest: ingestStatus{
			REST:       cfg.Ingest.REST.Enabled,
			Kafka:      cfg.Ingest.Kafka.Enabled,
			FileReplay: cfg.Ingest.FileReplay.Enabled,
			TCPStream:  cfg.Ingest.TCPStream.Enabled,
		},
		API: apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	sinceStr := r.URL.Query().Get("since")
	var list []model.RiskDecision
	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = s.decisions.Since(ts)
	} else {
		list = s.decisions.List(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decisions": list,
		"count":     len(list),
	})
}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list := s.cases.List(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"cases": list,
		"count": len(list),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		if s.decisions != nil {
			s.decisions.Clear()
		}
		if s.cases != nil {
			s.cases.Clear()
		}
	case "decisions":
		if s.decisions != nil {
			s.decisions.Clear()
		}
	case "cases":
		if s.cases != nil {
			s.cases.Clear()
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg, err := s.cfg.Reload()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if s.engine != nil {
		s.engine.UpdateConfig(cfg)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
