package api

import (
	"context"
	"fmt"
	"net/http"

	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/handlers"
	"boxoffice/internal/middleware"
	"boxoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports the state of the database pool. *database.DB
// implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
}

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	health   HealthChecker
	services *service.Services
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config, services *service.Services, health HealthChecker) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		health:   health,
		services: services,
	}
	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	{
		orders := api.Group("/orders")
		orders.Use(middleware.UserID())
		{
			orders.POST("", h.CreateOrder)
			orders.GET("/:id", h.GetOrder)
			orders.POST("/:id/confirm", h.ConfirmOrder)
			orders.POST("/:id/cancel", h.CancelOrder)
		}

		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("/:id/availability", h.GetAvailability)
			events.GET("/:id/best-seat", h.GetBestSeat)
			events.POST("/:id/open", h.OpenSales)
			events.POST("/:id/close", h.CloseSales)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "boxoffice-api"})
		return
	}

	hc := s.health.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if hc.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   hc.Status,
		"service":  "boxoffice-api",
		"database": hc,
	})
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%s", s.config.Port)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
