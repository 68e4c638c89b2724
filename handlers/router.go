package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/assetdesk/backend/middleware"
	"github.com/assetdesk/backend/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Logger *logrus.Logger

	Tokens   TokenService
	Users    UserStore
	Roles    RoleCache
	Assets   AssetStore
	Custom   CustomStore
	Requests RequestStore
	Images   ImageStore
	Health   Pinger

	Notifier *Notifier
	Metrics  *middleware.Metrics

	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	Production     bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger

	authHandler := &AuthHandler{Tokens: cfg.Tokens, Log: log}
	usersHandler := &UsersHandler{Users: cfg.Users, Roles: cfg.Roles, Log: log}
	assetsHandler := &AssetsHandler{Assets: cfg.Assets, Log: log}
	customHandler := &CustomHandler{
		Custom:   cfg.Custom,
		Images:   cfg.Images,
		MaxBytes: cfg.MaxUploadBytes,
		Log:      log,
		Metrics:  cfg.Metrics,
		Notifier: cfg.Notifier,
	}
	requestsHandler := &RequestsHandler{
		Requests: cfg.Requests,
		Log:      log,
		Metrics:  cfg.Metrics,
		Notifier: cfg.Notifier,
	}

	verify := middleware.Verifier{Tokens: cfg.Tokens}
	authed := middleware.Chain(log, verify)
	admin := middleware.Chain(log, verify, middleware.AdminGate{Roles: cfg.Roles})

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowOrigins(cfg.CORSOrigins))
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders(cfg.Production))
	r.Use(cfg.Metrics.Middleware)
	r.Use(chimw.Timeout(timeout))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Asset desk server is running"))
	})
	r.Get("/health", healthHandler(cfg.Health))
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Post("/jwt", authHandler.Issue)

	r.Route("/user", func(r chi.Router) {
		r.Get("/", usersHandler.List)
		r.Post("/", usersHandler.Create)
		r.With(authed).Get("/admin/{email}", usersHandler.AdminStatus)
		r.With(admin).Patch("/admin/{id}", usersHandler.Promote)
		r.With(admin).Delete("/{id}", usersHandler.Delete)
	})

	r.Route("/asset", func(r chi.Router) {
		r.Get("/", assetsHandler.List)
		r.Get("/{id}", assetsHandler.Get)
		r.Patch("/quantity/{assetName}", assetsHandler.Restock)
		r.With(admin).Post("/", assetsHandler.Create)
		r.With(admin).Patch("/{id}", assetsHandler.Update)
		r.With(admin).Delete("/{id}", assetsHandler.Delete)
	})

	r.Route("/custom", func(r chi.Router) {
		r.Get("/", customHandler.List)
		r.Post("/", customHandler.Create)
		r.With(authed).Post("/image", customHandler.UploadImage)
		r.Get("/{email}", customHandler.ListByEmail)
		r.Patch("/{id}", customHandler.Update)
		r.Patch("/approve/{id}", customHandler.Approve)
		r.Patch("/reject/{id}", customHandler.Reject)
	})

	r.Route("/myreq", func(r chi.Router) {
		r.Get("/", requestsHandler.List)
		r.Post("/", requestsHandler.Create)
		r.Get("/{email}", requestsHandler.ListByEmail)
		r.Delete("/{id}", requestsHandler.Delete)
		r.Patch("/return/{id}", requestsHandler.Return)
		r.With(admin).Patch("/approve/{id}", requestsHandler.Approve)
		r.With(admin).Patch("/reject/{id}", requestsHandler.Reject)
	})

	return r
}

type HealthResponse struct {
	Status string `json:"status"`
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				utils.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		utils.RespondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
