package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planlens/compare-cli/internal/anchor"
	"github.com/planlens/compare-cli/internal/compare"
	"github.com/planlens/compare-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the comparison HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e),
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/compare", handleCompare(e))
	r.Post("/assist/query", handleAssistQuery(e))
	r.Post("/assist/summary", handleAssistSummary(e))

	return r
}

func handleCompare(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.CompareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.SessionID != "" {
			res, err := e.Tracker.Apply(r.Context(), req.SessionID, req.Query)
			if err != nil {
				zap.L().Warn("anchor resolution failed", zap.Error(err))
			} else {
				applyAnchor(&req, res)
			}
		}

		result, err := e.Engine.Compare(r.Context(), req)
		if err != nil {
			if errors.Is(err, compare.ErrValidation) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			zap.L().Error("compare failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "comparison failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// applyAnchor fills request gaps from the session anchor. A follow-up that
// names only insurers keeps the prior coverage; explicit request fields
// always win.
func applyAnchor(req *model.CompareRequest, res anchor.Resolution) {
	if len(req.Insurers) == 0 && len(res.Insurers) > 0 {
		req.Insurers = res.Insurers
	}
	if res.Class == model.QueryClassInsurerOnly && res.Anchor != nil {
		if len(req.CoverageCodes) == 0 && res.Anchor.CoverageCode != "" {
			req.CoverageCodes = []string{res.Anchor.CoverageCode}
		}
		if res.Anchor.OriginalQuery != "" {
			req.Query = res.Anchor.OriginalQuery
		}
	}
}

func handleAssistQuery(e *env) http.HandlerFunc {
	type request struct {
		Query string `json:"query"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusUnprocessableEntity, "query is required")
			return
		}
		writeJSON(w, http.StatusOK, e.Assistant.RewriteQuery(r.Context(), req.Query))
	}
}

func handleAssistSummary(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var result model.CompareResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		writeJSON(w, http.StatusOK, e.Assistant.Summarize(r.Context(), &result))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
