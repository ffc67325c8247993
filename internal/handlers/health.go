package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/primecut/pricing-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string               `json:"status"`
	Database string               `json:"database"`
	Pool     *database.PoolStatus `json:"pool,omitempty"`
	Engine   string               `json:"engine"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
		Engine: "not initialized",
	}
	if calculator != nil {
		response.Engine = "ready"
	}

	// Check database connection
	if database.Pool() != nil {
		pool, err := database.Status(c.Request.Context())
		if err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
		response.Pool = pool
	} else {
		response.Database = "not configured"
	}

	c.JSON(http.StatusOK, response)
}
