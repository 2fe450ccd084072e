package health

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthChecker struct {
	backendURL string
	httpClient *http.Client
	redis      *redis.Client
}

type HealthStatus struct {
	Status  string        `json:"status"`
	Backend BackendHealth `json:"backend"`
	Redis   RedisHealth   `json:"redis"`
}

type BackendHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type RedisHealth struct {
	Status string `json:"status"`
}

// NewHealthChecker builds a checker; redisClient may be nil when the
// engine runs on the in-memory store
func NewHealthChecker(backendURL string, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		backendURL: backendURL,
		httpClient: &http.Client{Timeout: 2 * time.Second},
		redis:      redisClient,
	}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	backendHealth := h.checkBackend()
	redisHealth := h.checkRedis()

	status := "healthy"
	if backendHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:  status,
		Backend: backendHealth,
		Redis:   redisHealth,
	}
}

func (h *HealthChecker) checkBackend() BackendHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "GET", h.backendURL+"/api/health", nil)
	if err != nil {
		return BackendHealth{Status: "unhealthy"}
	}

	resp, err := h.httpClient.Do(req)
	responseTime := time.Since(start).Milliseconds()
	if err != nil {
		return BackendHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return BackendHealth{Status: "unhealthy", ResponseTime: responseTime}
	}

	return BackendHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) checkRedis() RedisHealth {
	if h.redis == nil {
		return RedisHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		return RedisHealth{Status: "unhealthy"}
	}
	return RedisHealth{Status: "healthy"}
}
