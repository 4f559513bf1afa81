package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/application/service"
	"github.com/bravo68web/ghcrm/internal/transport/http/middleware"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// RepoHandler handles tracked repository HTTP requests
type RepoHandler struct {
	repoService *service.RepoService
	log         *logger.Logger
}

// NewRepoHandler creates a new RepoHandler instance
func NewRepoHandler(repoService *service.RepoService) *RepoHandler {
	return &RepoHandler{
		repoService: repoService,
		log:         logger.Get().WithFields(logger.Component("repo-handler")),
	}
}

// ListRepositories handles GET /api/v1/repositories
func (h *RepoHandler) ListRepositories(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		respondUnauthorized(c)
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(dto.DefaultPage)))
	if err != nil {
		respondValidation(c, "page must be a number")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(dto.DefaultLimit)))
	if err != nil {
		respondValidation(c, "limit must be a number")
		return
	}

	query := dto.ListRepositoriesQuery{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	repos, total, err := h.repoService.ListRepositories(c.Request.Context(), user.ID, query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRepositoryListResponse(repos, total, page, limit))
}

// AddRepository handles POST /api/v1/repositories
func (h *RepoHandler) AddRepository(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		respondUnauthorized(c)
		return
	}

	var req dto.AddRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.log, err)
		return
	}

	repo, err := h.repoService.AddRepository(c.Request.Context(), user.ID, req.Path)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRepositoryResponse(repo))
}

// RefreshRepository handles PUT /api/v1/repositories/:id/refresh
func (h *RepoHandler) RefreshRepository(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		respondUnauthorized(c)
		return
	}

	id, ok := repositoryID(c)
	if !ok {
		return
	}

	repo, err := h.repoService.RefreshRepository(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRepositoryResponse(repo))
}

// DeleteRepository handles DELETE /api/v1/repositories/:id
func (h *RepoHandler) DeleteRepository(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		respondUnauthorized(c)
		return
	}

	id, ok := repositoryID(c)
	if !ok {
		return
	}

	if err := h.repoService.DeleteRepository(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchRepositories handles GET /api/v1/repositories/search
func (h *RepoHandler) SearchRepositories(c *gin.Context) {
	if middleware.GetUserFromContext(c) == nil {
		respondUnauthorized(c)
		return
	}

	results, err := h.repoService.SearchUpstream(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSearchResults(results))
}

// repositoryID parses the :id path parameter, answering 400 when it is not a positive integer
func repositoryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondValidation(c, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
