package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fraudguard/internal/config"
	"fraudguard/internal/normalize"
)

type RESTServer struct {
	svc    *Service
	logger *slog.Logger
}

func StartREST(ctx context.Context, cfg *config.Manager, svc *Service, logger *slog.Logger) *http.Server {
	current := cfg.Get().Ingest.REST
	if !current.Enabled {
		if logger != nil {
			logger.Info("rest ingest disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("rest ingest enabled", "addr", current.Addr)
	}
	server := &RESTServer{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", server.handleTransactions)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
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
				logger.Error("rest ingest server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *RESTServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 2<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body unreadable", nil)
		return
	}
	trim := bytesTrim(body)
	if len(trim) == 0 {
		writeError(w, http.StatusBadRequest, "empty body", nil)
		return
	}

	if trim[0] == '[' {
		var list []normalize.RawTransaction
		if err := json.Unmarshal(trim, &list); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON", nil)
			return
		}
		accepted := 0
		failed := 0
		for _, raw := range list {
			if _, err := s.svc.Handle(r.Context(), raw); err != nil {
				failed++
				continue
			}
			accepted++
		}
		writeJSON(w, http.StatusOK, map[string]any{"accepted": accepted, "failed": failed})
		return
	}

	var raw normalize.RawTransaction
	if err := json.Unmarshal(trim, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}
	decision, err := s.svc.Handle(r.Context(), raw)
	if err != nil {
		var verr *normalize.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error(), verr.Missing)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, decision)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string, missing []string) {
	body := map[string]any{"error": msg}
	if len(missing) > 0 {
		body["missing"] = missing
	}
	writeJSON(w, status, body)
}

func bytesTrim(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\n' || b[start] == '\r' || b[start] == '\t') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\n' || b[end-1] == '\r' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}
