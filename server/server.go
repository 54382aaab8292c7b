// Package server exposes the recommendation engine over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/recall/internal/profile"
	"github.com/hrygo/recall/recommend"
	"github.com/hrygo/recall/recommend/metrics"
	"github.com/hrygo/recall/recommend/vector"
	"github.com/hrygo/recall/store"
)

// Recommender is the engine surface the server depends on. Defined locally
// so handlers can be tested against a stub.
type Recommender interface {
	RecommendForCustomer(ctx context.Context, customerID string) (*recommend.Result, error)
	RecommendForProfile(ctx context.Context, profile recommend.CustomerProfile) (*recommend.Result, error)
	RecommendForQuery(ctx context.Context, queryText string) (*recommend.Result, error)
	RecommendForVector(ctx context.Context, query vector.Vector) (*recommend.Result, error)
	SimilarProducts(ctx context.Context, productID string, limit int) ([]recommend.Recommendation, error)
	RecommendByCategory(ctx context.Context, category string, limit int) ([]recommend.Recommendation, error)
	AddCustomer(ctx context.Context, profile recommend.CustomerProfile) (string, error)
	ListCustomerIDs(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (recommend.Summary, error)
	RefreshCache()
}

type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store

	engine   Recommender
	exporter *metrics.Exporter
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(_ context.Context, profile *profile.Profile, st *store.Store, engine Recommender, exporter *metrics.Exporter) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		e:        e,
		Profile:  profile,
		Store:    st,
		engine:   engine,
		exporter: exporter,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	// Metrics stay uncompressed for scrapers.
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: func(c echo.Context) bool { return c.Path() == "/metrics" },
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/recommendations", s.handleRecommendations)
	apiV1.GET("/customers", s.handleListCustomers)
	apiV1.POST("/customers", s.handleAddCustomer)
	apiV1.GET("/products/:id/similar", s.handleSimilarProducts)
	apiV1.GET("/categories/:category/products", s.handleCategoryProducts)
	apiV1.GET("/summary", s.handleSummary)
	apiV1.POST("/cache/refresh", s.handleCacheRefresh)

	return s, nil
}

// Start begins serving. It returns http.ErrServerClosed after a graceful
// shutdown.
func (s *Server) Start(_ context.Context) error {
	if s.Profile.UNIXSock != "" {
		listener, err := net.Listen("unix", s.Profile.UNIXSock)
		if err != nil {
			return err
		}
		s.e.Listener = listener
		return s.e.Start("")
	}
	return s.e.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
}

// Shutdown drains in-flight requests and closes the backing store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
	slog.Info("server stopped")
}
