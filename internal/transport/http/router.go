package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-todo-auth/internal/application/auth"
	"github.com/go-todo-auth/internal/application/otp"
	"github.com/go-todo-auth/internal/application/todo"
	"github.com/go-todo-auth/internal/application/token"
	"github.com/go-todo-auth/internal/config"
	"github.com/go-todo-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-todo-auth/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the services and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Device-Name", "Device-UUID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:  deps.OTPRepo,
		Length: cfg.OTPLength,
		TTL:    cfg.OTPTTL,
		Now:    deps.Now,
		Logger: log,
	})
	tokenSvc := token.NewService(token.ServiceDeps{
		Store:      deps.TokenRepo,
		Signer:     deps.JWTProvider,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Now:        deps.Now,
		Logger:     log,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:      deps.UserRepo,
		Hasher:        deps.Hasher,
		OTPs:          otpSvc,
		Tokens:        tokenSvc,
		SMSSender:     deps.SMSSender,
		Mailer:        deps.Mailer,
		NotifyTimeout: cfg.NotifyTimeout,
		OTPTTL:        cfg.OTPTTL,
		Now:           deps.Now,
		Logger:        log,
	})
	todoSvc := todo.NewService(todo.ServiceDeps{
		TodoRepo: deps.TodoRepo,
		UserRepo: deps.UserRepo,
		Now:      deps.Now,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(authSvc, log)
	todoH := handler.NewTodoHandler(todoSvc, log)

	authMw := appmiddleware.Auth(deps.JWTProvider)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/user", func(r chi.Router) {
		r.Post("/register", userH.Register)
		r.Post("/verify-otp", userH.VerifyOTP)
		r.Post("/resend-otp", userH.ResendOTP)
		r.With(appmiddleware.RequireDeviceHeaders).Post("/login", userH.Login)
		r.With(appmiddleware.RequireDeviceHeaders).Post("/refresh", userH.Refresh)
		r.With(authMw).Get("/profile", userH.Profile)
	})

	r.Route("/todo", func(r chi.Router) {
		r.Use(authMw)
		r.Use(appmiddleware.RequireDeviceHeaders)

		r.Post("/", todoH.Create)
		r.Get("/", todoH.List)
		r.Put("/update", todoH.Update)
		r.Delete("/delete", todoH.Delete)
	})

	return r
}
