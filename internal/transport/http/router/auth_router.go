package router

import (
	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/transport/http/handler"
	"github.com/bravo68web/ghcrm/pkg/openapi"
)

func (r *Router) authRouter() {
	v1 := r.server.Group("/api/v1")

	h := handler.NewAuthHandler(r.Deps.AuthService, r.Deps.UserService, r.server.Config)

	// Every auth route is reachable anonymously; the session is attached when present.
	auth := v1.Group("/auth", r.auth.Authenticate())
	{
		auth.GET("", h.Me)
		auth.POST("/sign-up", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/sign-out", h.SignOut)
	}

	docs := r.server.OpenAPIGenerator
	tags := []string{"Auth"}

	docs.RegisterDocs("GET", "/api/v1/auth", openapi.RouteDocs{
		Summary:     "Current user",
		Description: "The signed-in user, or null without a valid session.",
		Tags:        tags,
		Responses: map[int]openapi.ResponseDoc{
			200: {Description: "User or null", Model: &dto.UserResponse{}},
		},
	})
	docs.RegisterDocs("POST", "/api/v1/auth/sign-up", openapi.RouteDocs{
		Summary:     "Create an account",
		Description: "Creates the account and starts a session.",
		Tags:        tags,
		RequestBody: dto.SignUpRequest{},
		Responses: map[int]openapi.ResponseDoc{
			201: {Description: "Signed up", Model: dto.UserResponse{}},
			400: {Description: "Invalid request", Model: handler.ErrorResponse{}},
			409: {Description: "Email or phone already registered", Model: handler.ErrorResponse{}},
		},
	})
	docs.RegisterDocs("POST", "/api/v1/auth/login", openapi.RouteDocs{
		Summary:     "Log in",
		Tags:        tags,
		RequestBody: dto.LoginRequest{},
		Responses: map[int]openapi.ResponseDoc{
			200: {Description: "Signed in", Model: dto.UserResponse{}},
			400: {Description: "Invalid request", Model: handler.ErrorResponse{}},
			401: {Description: "Wrong credentials", Model: handler.ErrorResponse{}},
		},
	})
	docs.RegisterDocs("POST", "/api/v1/auth/sign-out", openapi.RouteDocs{
		Summary:     "Sign out",
		Description: "Ends the current session, or every session of the user with all=true. Always succeeds.",
		Tags:        tags,
		Query:       []openapi.Parameter{openapi.QueryParam("all", "boolean", "End every session of the user")},
		Responses: map[int]openapi.ResponseDoc{
			200: {Description: "Signed out", Model: dto.MessageResponse{}},
		},
	})
}
