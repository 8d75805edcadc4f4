package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"plantcare/internal/auth"
	"plantcare/internal/care"
	"plantcare/internal/metrics"
	"plantcare/internal/models"
	"plantcare/internal/weather"
)

// Server provides HTTP handlers for the plant care backend.
type Server struct {
	engine    *gin.Engine
	care      *care.Service
	sessions  *auth.Sessions
	metrics   *metrics.Metrics
	logger    *slog.Logger
	staticDir string
}

// New builds the gin engine for the plant care API.
// A nil metrics disables instrumentation and the /metrics endpoint.
func New(svc *care.Service, sessions *auth.Sessions, m *metrics.Metrics, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/metrics", "/api/healthz"))

	srv := &Server{
		engine:    router,
		care:      svc,
		sessions:  sessions,
		metrics:   m,
		logger:    logger,
		staticDir: staticDir,
	}
	if m != nil {
		router.Use(srv.instrument)
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes mounts the public, session-guarded and static routes.
func (s *Server) registerRoutes() {
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/login", s.handleLogin)
	}

	authed := api.Group("", s.requireOwner)
	{
		authed.POST("/auth/logout", s.handleLogout)
		authed.GET("/auth/me", s.handleMe)

		plants := authed.Group("/plants")
		{
			plants.GET("", s.handleListPlants)
			plants.POST("", s.handleCreatePlant)
			plants.POST("/seed", s.handleSeed)
			plants.POST("/fix-images", s.handleFixImages)
			plants.GET("/:id", s.handleGetPlant)
			plants.PATCH("/:id", s.handleUpdatePlant)
			plants.DELETE("/:id", s.handleDeletePlant)
			plants.POST("/:id/water", s.handleCare(models.ActionWater))
			plants.POST("/:id/fertilize", s.handleCare(models.ActionFertilize))
			plants.POST("/:id/events", s.handleCare(models.ActionOther))
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/counts", s.handleTaskCounts)
			tasks.GET("/today", s.handleToday)
			tasks.POST("/generate", s.handleGenerate)
			tasks.POST("/:id/complete", s.handleCompleteTask)
		}

		authed.GET("/digest", s.handleDigest)
		authed.GET("/analytics", s.handleAnalytics)

		authed.GET("/rooms", s.handleListRooms)
		authed.POST("/rooms", s.handleCreateRoom)
		authed.DELETE("/rooms/:id", s.handleDeleteRoom)

		authed.GET("/user-settings", s.handleGetSettings)
		authed.PATCH("/user-settings", s.handleUpdateSettings)

		authed.GET("/weather", s.handleWeather)
	}

	s.mountStatic()
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// instrument records request counts and latency by matched route.
func (s *Server) instrument(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
}

// parseID reads a positive integer path parameter and writes a 400 otherwise.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, care.ErrNoCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, weather.ErrNoAPIKey):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError maps err to a status, logs server-side failures and writes a
// JSON payload. Internal details are never sent to the client.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		body = gin.H{"error": "validation failed", "fields": verr.Fields}
	case errors.Is(err, care.ErrNoCoordinates):
		body = gin.H{"error": "No coordinates configured"}
	case errors.Is(err, models.ErrUnauthenticated):
		body = gin.H{"error": "unauthorized"}
	case status == http.StatusServiceUnavailable:
		body = gin.H{"error": "weather service not configured"}
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		body = gin.H{"error": "operation failed"}
	}
	c.AbortWithStatusJSON(status, body)
}

// respondSuccess writes payload as JSON, or just the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
