// Package dashboard serves the burnout dashboard: an insights page of
// precomputed charts, a single-employee prediction form with a JSON
// variant, and a static recommendations page. Artifacts are loaded once at
// startup and never written.
package dashboard

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/inference"
	"github.com/YuminosukeSato/burnrate/insights"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Artifacts are the read-only inputs of the dashboard.
type Artifacts struct {
	State     *features.State
	Predictor *inference.Predictor
	// Manifest and Importances are optional.
	Manifest    *registry.Manifest
	Importances []insights.Importance
}

// LoadArtifacts reads the transformer state and best model from modelDir.
// Missing required artifacts are a startup error.
func LoadArtifacts(modelDir string, logger log.Logger) (*Artifacts, error) {
	if logger == nil {
		logger = log.Component("dashboard")
	}
	store, err := registry.OpenExisting(modelDir)
	if err != nil {
		return nil, err
	}
	state, err := features.LoadState(store)
	if err != nil {
		return nil, err
	}
	pred, err := inference.LoadPredictor(store, logger)
	if err != nil {
		return nil, err
	}

	a := &Artifacts{State: state, Predictor: pred}
	if m, err := store.LoadManifest(); err == nil {
		a.Manifest = m
	} else {
		logger.Warn("manifest unavailable", err, log.ArtifactKey, store.File(registry.ManifestFile))
	}
	if imps, err := insights.ReadImportances(store.File(registry.ImportanceCSV)); err == nil {
		a.Importances = imps
	} else {
		logger.Warn("feature importances unavailable", err)
	}
	return a, nil
}

// Options configures a Server.
type Options struct {
	// EDADir and InsightsDir are served under /images/eda and /images/insights.
	EDADir      string
	InsightsDir string
	Logger      log.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	engine    *gin.Engine
	artifacts *Artifacts
	opts      Options
	metrics   *Metrics
	logger    log.Logger
}

// New builds the router over loaded artifacts.
func New(a *Artifacts, opts Options) (*Server, error) {
	if a == nil || a.State == nil || a.Predictor == nil {
		return nil, errors.Wrap(errors.ErrArtifactNotFound, "dashboard needs transformer state and model")
	}
	if opts.Logger == nil {
		opts.Logger = log.Component("dashboard")
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"pct": func(v float64) float64 { return v * 100 },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	s := &Server{
		engine:    gin.New(),
		artifacts: a,
		opts:      opts,
		metrics:   NewMetrics(),
		logger:    opts.Logger,
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(gin.Recovery(), RequestID(), Observe(s.metrics, s.logger))
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	r := s.engine
	r.GET("/", s.Index)
	r.GET("/predict", s.PredictForm)
	r.POST("/predict", s.PredictSubmit)
	r.GET("/recommendations", s.Recommendations)
	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.POST("/predict", s.APIPredict)
	}

	if s.opts.EDADir != "" {
		r.Static("/images/eda", s.opts.EDADir)
	}
	if s.opts.InsightsDir != "" {
		r.Static("/images/insights", s.opts.InsightsDir)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr, log.ModelNameKey, s.artifacts.Predictor.ModelName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "listen on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	s.logger.Info("server stopped")
	return nil
}

// chart is one image panel of the insights page.
type chart struct {
	Title string
	URL   string
}

var edaCharts = []struct{ title, file string }{
	{"Burn Rate Distribution", insights.DistributionPlot},
	{"Burn Rate vs Mental Fatigue", insights.FatiguePlot},
	{"Burn Rate by Company Type", insights.CompanyTypePlot},
	{"Burn Rate by Designation", insights.DesignationPlot},
	{"Correlation Heatmap", insights.CorrelationPlot},
}

// charts lists the precomputed images that exist on disk.
func (s *Server) charts() []chart {
	var out []chart
	for _, c := range edaCharts {
		if s.opts.EDADir != "" && fileExists(filepath.Join(s.opts.EDADir, c.file)) {
			out = append(out, chart{Title: c.title, URL: "/images/eda/" + c.file})
		}
	}
	if s.opts.InsightsDir != "" && fileExists(filepath.Join(s.opts.InsightsDir, insights.ImportancePlotFile)) {
		out = append(out, chart{
			Title: "Feature Importance (Random Forest)",
			URL:   "/images/insights/" + insights.ImportancePlotFile,
		})
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
