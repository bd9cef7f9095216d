package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dealglance/lineitems-backend/internal/config"
	"github.com/dealglance/lineitems-backend/internal/handler"
	"github.com/dealglance/lineitems-backend/internal/service"
	"github.com/dealglance/lineitems-backend/internal/store"
	"github.com/dealglance/lineitems-backend/pkg/auth"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("no .env file found — relying on environment: %v", err)
	}

	cfg := config.Load()
	if cfg.HubSpotClientID == "" || cfg.HubSpotClientSecret == "" {
		log.Fatal("HUBSPOT_CLIENT_ID and HUBSPOT_CLIENT_SECRET must be set")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET must be set")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	tokens, closeStore, err := buildTokenStore(cfg)
	if err != nil {
		log.Fatalf("token store: %v", err)
	}
	defer closeStore()

	manager := service.NewAuthManager(service.AuthConfig{
		ClientID:     cfg.HubSpotClientID,
		ClientSecret: cfg.HubSpotClientSecret,
		RedirectURI:  cfg.HubSpotRedirectURI,
	}, httpClient, tokens)
	fetcher := service.NewLineItemFetcher(httpClient)
	authProvider := auth.NewJWT(cfg.SessionSecret)

	appRouter := handler.NewRouter(cfg, authProvider, manager, fetcher)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Mount("/", appRouter)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

// buildTokenStore picks the store backend from configuration: Postgres
// when DATABASE_URL is set, Redis when REDIS_ADDR is set, otherwise
// the in-process map (single-worker deployments only).
func buildTokenStore(cfg *config.Config) (store.TokenStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("token store: postgres")
		return pg, pg.Close, nil
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		log.Printf("token store: redis at %s", cfg.RedisAddr)
		return store.NewRedisStore(client, "lineitems"), func() { _ = client.Close() }, nil
	default:
		log.Printf("token store: in-memory (tokens lost on restart)")
		return store.NewMemoryStore(), func() {}, nil
	}
}
