package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/repositories"
	"github.com/satriahrh/juru/server/internal/registry"
	"github.com/satriahrh/juru/server/internal/websocket"
)

const serviceName = "juru-relay"

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, reg *registry.Registry, gatherer prometheus.Gatherer, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:      "ok",
			Service:     serviceName,
			Connections: reg.Len(),
		})
	})

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/connections", func(c echo.Context) error {
		connections := reg.List()
		return c.JSON(http.StatusOK, ConnectionsResponse{
			Count:       len(connections),
			Connections: connections,
		})
	})

	v1.GET("/connections/:id", func(c echo.Context) error {
		return getConnection(c, reg, logger)
	})

	// Call legs
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c)
	})
}

func getConnection(c echo.Context, reg *registry.Registry, logger *zap.Logger) error {
	id := c.Param("id")

	conn, err := reg.Get(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No live connection with id " + id,
		})
	}
	if err != nil {
		logger.Error("Failed to look up connection", zap.String("connectionID", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	return c.JSON(http.StatusOK, conn.Snapshot())
}
