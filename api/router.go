package main

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openapiYAML []byte

// routes wires middlewares and endpoints.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/v1/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		_, _ = w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/v1/openapi.yaml"),
	))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(a.authMiddleware)

		api.Route("/openagri-dataset", func(dr chi.Router) {
			dr.Post("/", a.handleUploadDataset)
			dr.Get("/{id}", a.handleGetDataset)
			dr.Get("/download/{id}", a.handleDownloadDataset)
			dr.Delete("/{id}", a.handleDeleteDataset)
		})

		api.Route("/openagri-report", func(rr chi.Router) {
			rr.Get("/file/{uuid}", a.handleReportFile)
			rr.Get("/{id}", a.handleGetReport)
			rr.Delete("/{id}", a.handleDeleteReport)
			rr.Post("/{report_type}/", a.handleCreateReport)
			rr.Post("/{report_type}/dataset/{dataset_id}", a.handleReportFromDataset)
		})
	})

	return r
}
