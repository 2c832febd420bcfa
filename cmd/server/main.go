package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"userflow-backend/internal/auth"
	"userflow-backend/internal/config"
	"userflow-backend/internal/handlers"
	customMiddleware "userflow-backend/internal/middleware"
	"userflow-backend/internal/notify"
	"userflow-backend/internal/store"
	"userflow-backend/internal/workflow"
)

func main() {
	// Load .env (ignore error in production — env vars set directly)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	ctx := context.Background()

	var userStore store.Store
	switch cfg.StoreBackend {
	case config.BackendMongo:
		db, err := store.Connect(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		log.Println("✅ Connected to MongoDB")

		mongoStore := store.NewMongoStore(db)
		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mongoStore.EnsureIndexes(idxCtx); err != nil {
			log.Printf("⚠️  Warning: failed to create user indexes: %v", err)
		}
		cancel()
		userStore = mongoStore
	case config.BackendCrudCrud:
		userStore = store.NewCrudCrudStore(cfg.CrudCrudBaseURL, cfg.CrudCrudAPIKey)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	var google *auth.GoogleVerifier
	if cfg.OAuthEnabled() {
		google, err = auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Google OAuth: %v", err)
		}
	}

	notifier := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.FromEmail)

	orchestrator := workflow.NewOrchestrator(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, workflow.Options{
		Queue:           cfg.TaskQueue,
		ActivityTimeout: cfg.ActivityTimeout,
		UpdateDelay:     cfg.ProfileUpdateDelay,
		Retention:       cfg.RunRetention,
	})
	defer orchestrator.Close()

	authHandler := handlers.NewAuthHandler(userStore, issuer, google, notifier, cfg.FrontendURL)
	userHandler := handlers.NewUserHandler(userStore, orchestrator)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"userflow-backend"}`))
	})

	// Public routes (no auth required)
	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/login", authHandler.Login)
	r.Get("/auth/google", authHandler.GoogleLogin)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)

	// Protected routes (JWT required)
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(issuer))

		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile", userHandler.UpdateProfile)
	})

	log.Printf("🚀 Userflow backend starting on %s (store: %s)", cfg.AppAddr, cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.AppAddr, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
