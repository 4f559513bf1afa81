package router

import (
	"github.com/gin-gonic/gin"

	"github.com/bravo68web/ghcrm/internal/observability"
	"github.com/bravo68web/ghcrm/internal/transport/http/handler"
	"github.com/bravo68web/ghcrm/pkg/openapi"
)

func (r *Router) healthRouter() {
	h := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": r.server.DB,
		"sessions": r.Deps.Sessions,
	})

	r.server.GET("/", h.Live)
	r.server.GET("/healthz", h.Live)
	r.server.GET("/readyz", h.Ready)
	r.server.GET("/metrics", gin.WrapH(observability.Handler()))

	docs := r.server.OpenAPIGenerator
	tags := []string{"Health"}
	docs.RegisterDocs("GET", "/healthz", openapi.RouteDocs{Summary: "Liveness probe", Tags: tags})
	docs.RegisterDocs("GET", "/readyz", openapi.RouteDocs{
		Summary: "Readiness probe",
		Tags:    tags,
		Responses: map[int]openapi.ResponseDoc{
			200: {Description: "Database and session store reachable"},
			503: {Description: "A dependency is down"},
		},
	})
	docs.RegisterDocs("GET", "/metrics", openapi.RouteDocs{Summary: "Prometheus metrics", Tags: tags})
}

func (r *Router) docsRouter() {
	r.server.GET("/api/v1/openapi.json", r.server.OpenAPIGenerator.Handler())
}
