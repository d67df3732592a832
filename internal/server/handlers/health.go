package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
)

// HealthHandler reports liveness, uptime and host memory pressure.
type HealthHandler struct {
	startedAt time.Time
	// memoryUsage is swapped out in tests.
	memoryUsage func(c *gin.Context) (float64, error)
}

// NewHealthHandler measures uptime from startedAt, or from now when it is zero.
func NewHealthHandler(startedAt time.Time) *HealthHandler {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	return &HealthHandler{
		startedAt:   startedAt,
		memoryUsage: hostMemoryUsage,
	}
}

// HandleHealthCheck returns the basic health status of the service. Memory
// figures are best effort and left out when the host cannot report them.
func (h *HealthHandler) HandleHealthCheck(c *gin.Context) {
	response := gin.H{
		"status":         "ok",
		"service":        "music-analysis",
		"uptime_seconds": math.Round(time.Since(h.startedAt).Seconds()),
	}
	if used, err := h.memoryUsage(c); err == nil {
		response["memory_used_percent"] = math.Round(used*10) / 10
	}
	c.JSON(http.StatusOK, response)
}

func hostMemoryUsage(c *gin.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(c.Request.Context())
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
