package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mol-insights/feestrat-cli/internal/analytics"
	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/insight"
	"github.com/mol-insights/feestrat-cli/internal/model"
	"github.com/mol-insights/feestrat-cli/internal/simulator"
	"github.com/mol-insights/feestrat-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the revenue analytics HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := loadRecords(ctx, cmd)
		if err != nil {
			return err
		}

		assistant, _ := initAssistant(st)
		srv := &apiServer{
			store:     st,
			records:   records,
			summary:   ingest.Summarize(records),
			sim:       simulator.New(records),
			assistant: assistant,
		}

		// Seed the in-memory registry from previously saved scenarios so
		// comparisons survive restarts.
		saved, err := st.ListScenarios(ctx)
		if err != nil {
			return err
		}
		for _, sc := range saved {
			srv.sim.CreateScenario(sc.Name, sc.Description, feeChangesOf(sc))
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = httpSrv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Int("services", len(records)))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	store     store.Store
	records   []model.ServiceRecord
	summary   model.Summary
	sim       *simulator.Simulator
	assistant *insight.Assistant
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/services", s.handleServices)
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/scenarios", s.handleListScenarios)
		r.Post("/scenarios", s.handleCreateScenario)
		r.Get("/scenarios/compare", s.handleCompare)
		r.Post("/insights", s.handleInsights)
	})

	return r
}

func (s *apiServer) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.summary)
}

func (s *apiServer) handleServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.records)
}

func (s *apiServer) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	fee := queryFloat(r, "fee", 50)
	top := int(queryFloat(r, "top", 10))
	writeJSON(w, http.StatusOK, analytics.TopOpportunities(s.records, fee, top))
}

func (s *apiServer) handleListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Scenarios())
}

func (s *apiServer) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Changes     []model.FeeChange `json:"changes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sc := s.sim.CreateScenario(req.Name, req.Description, req.Changes)
	if err := s.store.SaveScenario(r.Context(), sc); err != nil {
		zap.L().Error("serve: scenario save failed", zap.String("scenario", sc.Name), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *apiServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	writeJSON(w, http.StatusOK, s.sim.CompareScenarios(names...))
}

func (s *apiServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		Lang string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Kind == "" {
		sections, err := s.assistant.GenerateAll(r.Context(), s.summary, req.Lang)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, sections)
		return
	}

	kind := insight.Kind(req.Kind)
	if !validKind(kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown insight section: " + req.Kind})
		return
	}
	text, err := s.assistant.GenerateInsights(r.Context(), s.summary, kind, req.Lang)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"kind": req.Kind, "text": text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: response encode failed", zap.Error(err))
	}
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(raw, "%f", &f); err != nil {
		return fallback
	}
	return f
}

// feeChangesOf reconstructs the fee-change list a saved scenario was
// built from, so it can be replayed into a fresh simulator.
func feeChangesOf(sc model.Scenario) []model.FeeChange {
	changes := make([]model.FeeChange, len(sc.Changes))
	for i, ch := range sc.Changes {
		changes[i] = model.FeeChange{Service: ch.Service, NewFee: ch.NewFee}
	}
	return changes
}

func init() {
	addInputFlag(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
