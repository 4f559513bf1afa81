package router

import (
	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/transport/http/handler"
	"github.com/bravo68web/ghcrm/pkg/openapi"
)

func (r *Router) repoRouter() {
	v1 := r.server.Group("/api/v1")

	h := handler.NewRepoHandler(r.Deps.RepoService)

	repos := v1.Group("/repositories", r.auth.RequireAuth())
	{
		repos.GET("", h.ListRepositories)
		repos.POST("", h.AddRepository)
		repos.GET("/search", h.SearchRepositories)
		repos.PUT("/:id/refresh", h.RefreshRepository)
		repos.DELETE("/:id", h.DeleteRepository)
	}

	r.repoDocs()
}

func (r *Router) repoDocs() {
	docs := r.server.OpenAPIGenerator
	tags := []string{"Repositories"}
	errs := map[int]openapi.ResponseDoc{
		400: {Description: "Invalid request", Model: handler.ErrorResponse{}},
		401: {Description: "Authentication required", Model: handler.ErrorResponse{}},
	}
	with := func(extra map[int]openapi.ResponseDoc) map[int]openapi.ResponseDoc {
		out := make(map[int]openapi.ResponseDoc, len(errs)+len(extra))
		for k, v := range errs {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	docs.RegisterDocs("GET", "/api/v1/repositories", openapi.RouteDocs{
		Summary:     "List tracked repositories",
		Description: "One page of the caller's repositories, optionally filtered by a case-insensitive substring of the full name. Total counts every match.",
		Tags:        tags,
		Secured:     true,
		Query: []openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number, from 1 (default 1)"),
			openapi.QueryParam("limit", "integer", "Page size, 1-100 (default 10)"),
			openapi.QueryParam("search", "string", "Substring of owner/name"),
		},
		Responses: with(map[int]openapi.ResponseDoc{
			200: {Description: "Repository page", Model: dto.RepositoryListResponse{}},
		}),
	})

	docs.RegisterDocs("POST", "/api/v1/repositories", openapi.RouteDocs{
		Summary:     "Track a repository",
		Description: "Looks up owner/repo on GitHub and stores its current counts.",
		Tags:        tags,
		Secured:     true,
		RequestBody: dto.AddRepositoryRequest{},
		Responses: with(map[int]openapi.ResponseDoc{
			201: {Description: "Repository tracked", Model: dto.RepositoryResponse{}},
			404: {Description: "No such repository on GitHub", Model: handler.ErrorResponse{}},
			409: {Description: "Already tracked", Model: handler.ErrorResponse{}},
			502: {Description: "GitHub unavailable", Model: handler.ErrorResponse{}},
		}),
	})

	docs.RegisterDocs("GET", "/api/v1/repositories/search", openapi.RouteDocs{
		Summary:     "Search GitHub",
		Description: "Up to 10 GitHub repositories matching the query. Queries shorter than 3 characters return an empty list.",
		Tags:        tags,
		Secured:     true,
		Query:       []openapi.Parameter{openapi.QueryParam("query", "string", "Search text")},
		Responses: with(map[int]openapi.ResponseDoc{
			200: {Description: "Matches", Model: []dto.SearchResultResponse{}},
			502: {Description: "GitHub unavailable", Model: handler.ErrorResponse{}},
		}),
	})

	docs.RegisterDocs("PUT", "/api/v1/repositories/:id/refresh", openapi.RouteDocs{
		Summary:     "Refresh counts",
		Description: "Re-reads stars, forks and open issues from GitHub.",
		Tags:        tags,
		Secured:     true,
		Responses: with(map[int]openapi.ResponseDoc{
			200: {Description: "Refreshed repository", Model: dto.RepositoryResponse{}},
			404: {Description: "Not tracked by the caller", Model: handler.ErrorResponse{}},
			502: {Description: "GitHub unavailable", Model: handler.ErrorResponse{}},
		}),
	})

	docs.RegisterDocs("DELETE", "/api/v1/repositories/:id", openapi.RouteDocs{
		Summary: "Stop tracking",
		Tags:    tags,
		Secured: true,
		Responses: with(map[int]openapi.ResponseDoc{
			204: {Description: "Deleted"},
			404: {Description: "Not tracked by the caller", Model: handler.ErrorResponse{}},
		}),
	})
}
