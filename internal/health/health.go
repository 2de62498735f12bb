package health

import (
	"context"
	"runtime"
	"time"

	"portaria-backend/internal/monitoring"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status     string                    `json:"status"`
	Database   DatabaseHealth            `json:"database"`
	Goroutines int                       `json:"goroutines"`
	HeapMB     float64                   `json:"heap_mb"`
	System     monitoring.SystemSnapshot `json:"system"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

// Check pings the ledger database and samples process and host stats. The
// overall status degrades only on database failure.
func (h *HealthChecker) Check() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return HealthStatus{
		Status:     status,
		Database:   dbHealth,
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     float64(memStats.Alloc) / 1024 / 1024,
		System:     monitoring.CollectSystem(),
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return DatabaseHealth{Status: "healthy", ResponseTime: responseTime}
}
