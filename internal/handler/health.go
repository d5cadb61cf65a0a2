package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"
	"github.com/Cozta1/sistema-encomendas-V2/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the email pipeline state;
// never exposes credentials or internals. A nil rdb reports redis as disabled.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		healthy := dbStatus == "connected"

		if rdb == nil {
			body["redis"] = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			body["redis"] = "error"
			healthy = false
		} else {
			body["redis"] = "connected"
			if n, err := worker.QueueLength(ctx, rdb, worker.QueueEmail); err == nil {
				body["email_queue"] = n
			}
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueEmail); err == nil {
				body["email_dlq"] = n
			}
		}
		if cb != nil {
			body["smtp_circuit"] = cb.State().String()
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = healthy
		c.JSON(status, body)
	}
}
