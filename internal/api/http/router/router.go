package router

import (
	"net/http"

	apiContext "github.com/dtroode/vkn-server/internal/api/http/context"
	"github.com/dtroode/vkn-server/internal/api/http/handler"
	"github.com/dtroode/vkn-server/internal/api/http/middleware"
	"github.com/dtroode/vkn-server/internal/logger"
)

// Router wires HTTP handlers and middleware for the account API.
type Router struct {
	authService    handler.AuthService
	tokenService   middleware.TokenService
	contextManager *apiContext.Manager
	pinger         handler.Pinger
	corsOrigin     string
	logger         *logger.Logger
}

// New creates new HTTP Router instance. pinger may be nil.
func New(
	authService handler.AuthService,
	tokenService middleware.TokenService,
	contextManager *apiContext.Manager,
	pinger handler.Pinger,
	corsOrigin string,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		pinger:         pinger,
		corsOrigin:     corsOrigin,
		logger:         logger,
	}
}

// Register builds the handler tree with request id, logging, recovery and CORS middleware.
func (r *Router) Register() http.Handler {
	mux := http.NewServeMux()

	r.registerAuthRoutes(mux)
	r.registerUserRoutes(mux)
	mux.Handle("GET /health", handler.NewHealth(r.pinger, r.logger))

	var h http.Handler = mux
	h = middleware.NewRecovery(r.logger).Handle(h)
	h = middleware.NewLogging(r.logger, r.contextManager).Handle(h)
	h = middleware.NewRequestID(r.contextManager).Handle(h)
	h = middleware.NewCORS(r.corsOrigin).Handle(h)
	return h
}

func (r *Router) registerAuthRoutes(mux *http.ServeMux) {
	auth := handler.NewAuth(r.authService, r.contextManager, r.logger)

	mux.HandleFunc("POST /auth/signup", auth.Signup)
	mux.HandleFunc("POST /auth/request/verify-email", auth.RequestVerifyEmail)
	mux.HandleFunc("PATCH /auth/verify-email", auth.VerifyEmail)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/request/reset-password", auth.RequestResetPassword)
	mux.HandleFunc("PATCH /auth/reset-password", auth.ResetPassword)
	mux.HandleFunc("POST /auth/refresh-token", auth.RefreshToken)
}

func (r *Router) registerUserRoutes(mux *http.ServeMux) {
	auth := handler.NewAuth(r.authService, r.contextManager, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	mux.Handle("POST /user/edit/email/request", authenticate.Handle(http.HandlerFunc(auth.RequestEmailChange)))
	mux.Handle("PATCH /user/edit/email", authenticate.Handle(http.HandlerFunc(auth.ConfirmEmailChange)))
}
