package handler

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	db        *sql.DB
	redis     *redis.Client
	startTime time.Time
	version   string
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client) *HealthHandler {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "unknown"
	}
	return &HealthHandler{
		db:        db,
		redis:     redisClient,
		startTime: time.Now(),
		version:   version,
	}
}

type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]healthCheck `json:"checks"`
}

// Health is the liveness probe: the process is up, nothing more.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "UP",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    map[string]healthCheck{"process": {Status: "UP"}},
	})
}

// Ready is the readiness probe: both backing stores must answer.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]healthCheck{
		"database": h.checkDatabase(),
		"redis":    h.checkRedis(),
	}

	status := "UP"
	httpStatus := http.StatusOK
	for _, check := range checks {
		if check.Status != "UP" {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]any{"status": status, "checks": checks})
}

func (h *HealthHandler) checkDatabase() healthCheck {
	if h.db == nil {
		return healthCheck{Status: "DOWN", Message: "Database connection is not initialized"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return healthCheck{Status: "DOWN", Message: "Cannot connect to database"}
	}
	return healthCheck{Status: "UP"}
}

func (h *HealthHandler) checkRedis() healthCheck {
	if h.redis == nil {
		return healthCheck{Status: "DOWN", Message: "Redis client is not initialized"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return healthCheck{Status: "DOWN", Message: "Cannot connect to Redis"}
	}
	return healthCheck{Status: "UP"}
}
