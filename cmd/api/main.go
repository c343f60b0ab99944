package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/neuronet-health/counselor-admin-service/internal/adapters/cache"
	"github.com/neuronet-health/counselor-admin-service/internal/adapters/handler"
	"github.com/neuronet-health/counselor-admin-service/internal/adapters/middleware"
	"github.com/neuronet-health/counselor-admin-service/internal/adapters/repository"
	"github.com/neuronet-health/counselor-admin-service/internal/config"
	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/services"
	"github.com/neuronet-health/counselor-admin-service/internal/metrics"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("Connected to Redis successfully")

	registry := repository.NewSQLVerificationRegistry(db)
	directory := repository.NewSQLAccountDirectory(db)
	auditSink := repository.NewSQLAuditSink(db)

	if err := services.Bootstrap(ctx, directory, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	appMetrics := metrics.New()
	verificationService := services.NewVerificationService(registry, directory, auditSink, appMetrics)
	accountService := services.NewAccountService(directory, auditSink)
	dashboardService := services.NewDashboardService(registry, directory, auditSink, cache.NewRedisCache(redisClient))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey, middleware.NewRedisRevocations(redisClient))

	verificationHandler := handler.NewVerificationHandler(verificationService)
	accountHandler := handler.NewAccountHandler(accountService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	admin := []string{string(domain.RoleAdmin)}

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public self-service application
	mux.HandleFunc("POST /verifications/apply", verificationHandler.Apply)

	// Admin console: verification workflow
	mux.HandleFunc("GET /verifications", authMiddleware.RequireRole(admin, verificationHandler.List))
	mux.HandleFunc("POST /verifications", authMiddleware.RequireRole(admin, verificationHandler.Create))
	mux.HandleFunc("GET /verifications/{id}", authMiddleware.RequireRole(admin, verificationHandler.Get))
	mux.HandleFunc("PUT /verifications/{id}", authMiddleware.RequireRole(admin, verificationHandler.Edit))
	mux.HandleFunc("DELETE /verifications/{id}", authMiddleware.RequireRole(admin, verificationHandler.Delete))
	mux.HandleFunc("POST /verifications/{id}/approve", authMiddleware.RequireRole(admin, verificationHandler.Approve))
	mux.HandleFunc("POST /verifications/{id}/reject", authMiddleware.RequireRole(admin, verificationHandler.Reject))

	// Admin console: account management
	mux.HandleFunc("GET /accounts", authMiddleware.RequireRole(admin, accountHandler.List))
	mux.HandleFunc("POST /accounts", authMiddleware.RequireRole(admin, accountHandler.Create))
	mux.HandleFunc("PUT /accounts/{id}", authMiddleware.RequireRole(admin, accountHandler.Edit))
	mux.HandleFunc("DELETE /accounts/{id}", authMiddleware.RequireRole(admin, accountHandler.Delete))

	// Admin console: dashboard
	mux.HandleFunc("GET /dashboard", authMiddleware.RequireRole(admin, dashboardHandler.Overview))

	server := middleware.CORSMiddleware(cfg.AllowedOrigins)(mux)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, server); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
