package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/txfh/feesched/internal/metrics"
)

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(resolver Looker) {
	metrics.Register()

	lookupHandler := NewLookupHandler(resolver)

	s.App.Get("/", Health)
	s.App.Get("/healthz", Health)
	s.App.Get("/lookup", lookupHandler.Lookup)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
