package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"pocketauth-backend/internal/auth"
	"pocketauth-backend/internal/cache"
	"pocketauth-backend/internal/config"
	"pocketauth-backend/internal/handlers"
	"pocketauth-backend/internal/mail"
	"pocketauth-backend/internal/middleware"
	"pocketauth-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database connection (with retries)
	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			break
		}
		log.Printf("DB connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Redis backs the rate limiter; sensitive flows fail closed without
	// it, so a missing connection is fatal.
	redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Mail dispatch via NATS, or a logging stub without one.
	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.NATSURL != "" {
		natsMailer, err := mail.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsMailer.Close()
		mailer = natsMailer
	} else {
		log.Println("WARN NATS_URL not set; outbound mail will only be logged")
	}

	store := storage.NewStorage(db)
	svc := auth.NewService(store, mailer, cfg.AppBaseURL)
	authHandler := auth.NewHandler(svc, store, cfg.IsProduction())
	orgHandler := handlers.New(store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware(store))

	r.With(middleware.RateLimit(redisClient, "login", middleware.LoginLimit, middleware.LoginWindow)).
		Post("/v1/auth/login", authHandler.Login)
	r.With(middleware.RateLimit(redisClient, "signup", middleware.SignupLimit, middleware.SignupWindow)).
		Post("/v1/auth/signup", authHandler.Signup)
	r.With(middleware.RateLimit(redisClient, "forgot", middleware.ResetLimit, middleware.ResetWindow)).
		Post("/v1/auth/forgot-password", authHandler.ForgotPassword)
	r.Post("/v1/auth/reset-password", authHandler.ResetPassword)
	r.Post("/v1/auth/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/v1/auth/me", authHandler.Me)
		r.Post("/v1/auth/verify-email", authHandler.VerifyEmail)
		r.With(middleware.RateLimit(redisClient, "resend", middleware.ResendLimit, middleware.ResendWindow)).
			Post("/v1/auth/resend-verification", authHandler.ResendVerification)
		r.Post("/v1/auth/active-organization", authHandler.SetActiveOrganization)
		orgHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
