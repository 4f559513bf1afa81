package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/application/service"
	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	domainservice "github.com/bravo68web/ghcrm/internal/domain/service"
	"github.com/bravo68web/ghcrm/internal/transport/http/middleware"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService domainservice.AuthService
	userService *service.UserService
	config      *config.Config
	log         *logger.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(
	authService domainservice.AuthService,
	userService *service.UserService,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		config:      cfg,
		log:         logger.Get().WithFields(logger.Component("auth-handler")),
	}
}

// SignUp handles POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	user, err := h.userService.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.authService.AuthenticatePassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if !h.startSession(c, user) {
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// SignOut handles POST /api/v1/auth/sign-out.
// With ?all=true every other session of the user is revoked as well.
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.clearCookie(c)

	session := middleware.GetSessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "signed out"})
		return
	}

	everywhere, _ := strconv.ParseBool(c.Query("all"))
	if err := h.authService.EndSession(c.Request.Context(), session, everywhere); err != nil {
		// The cookie is already cleared; a stale store entry expires on its own.
		h.log.Error("Failed to end session", logger.UserID(session.UserID), logger.Error(err))
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "signed out"})
}

// Me handles GET /api/v1/auth. Anonymous callers get a JSON null.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) bool {
	_, token, err := h.authService.StartSession(c.Request.Context(), user, c.Request.UserAgent())
	if err != nil {
		respondError(c, h.log, err)
		return false
	}

	c.SetSameSite(h.sameSite())
	c.SetCookie(
		h.config.Session.CookieName,
		token,
		int(h.config.Session.TTL.Seconds()),
		"/",
		"",
		h.config.IsProduction(),
		true,
	)
	return true
}

// clearCookie expires the session cookie; call it before writing the body
func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(h.sameSite())
	c.SetCookie(h.config.Session.CookieName, "", -1, "/", "", h.config.IsProduction(), true)
}

func (h *AuthHandler) sameSite() http.SameSite {
	if h.config.IsProduction() {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}
