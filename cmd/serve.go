package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/dataset"
	"github.com/eudatnat/harvest-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a small HTTP API over the harvest pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reg, err := initRegistry()
		if err != nil {
			return err
		}
		engine := dataset.NewEngine(reg, initDeps(st), st)

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/datasets", func(w http.ResponseWriter, req *http.Request) {
			type entry struct {
				Name     string `json:"name"`
				Category string `json:"category"`
				Country  string `json:"country"`
				Format   string `json:"format"`
			}
			var out []entry
			for _, name := range reg.Names() {
				m, _ := reg.Get(name)
				out = append(out, entry{
					Name: m.Name, Category: m.Category,
					Country: m.Country, Format: m.Source.Format,
				})
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), store.RunFilter{Limit: 50})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Post("/datasets/{name}/run", func(w http.ResponseWriter, req *http.Request) {
			name := chi.URLParam(req, "name")
			if _, err := reg.Get(name); err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}

			// Harvests take minutes; respond immediately and run in the
			// background.
			go func() {
				results, err := engine.Run(ctx, dataset.RunOpts{Datasets: []string{name}})
				if err != nil {
					zap.L().Error("api-triggered run failed", zap.String("dataset", name), zap.Error(err))
					return
				}
				for _, res := range results {
					if res.Err != nil {
						zap.L().Error("api-triggered run failed", zap.String("dataset", name), zap.Error(res.Err))
					}
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":  "accepted",
				"dataset": name,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
