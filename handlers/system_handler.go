package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ticketbot/utils"
)

type SystemHandler struct {
	redis *redis.Client
}

func NewSystemHandler(redisClient *redis.Client) *SystemHandler {
	return &SystemHandler{redis: redisClient}
}

func (h *SystemHandler) Health(re *core.RequestEvent) error {
	if err := utils.RedisHealthCheck(h.redis); err != nil {
		return re.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"redis":  err.Error(),
		})
	}
	return re.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) Metrics(re *core.RequestEvent) error {
	promhttp.Handler().ServeHTTP(re.Response, re.Request)
	return nil
}
