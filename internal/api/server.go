package api

import (
	"net/http"

	"pcgstreams/internal"
	"pcgstreams/internal/config"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/seed"
	"pcgstreams/ports"

	"github.com/gin-gonic/gin"
)

// Server exposes plan construction, replay and permutation tests over HTTP
type Server struct {
	router  *gin.Engine
	plans   ports.PlanRepository
	rngPort ports.RNGPort
	conv    seed.Converter
	cfg     config.StreamsConfig
	logger  *internal.Logger
}

// NewServer creates the API server and its routes
func NewServer(plans ports.PlanRepository, rngPort ports.RNGPort, cfg config.StreamsConfig) *Server {
	s := &Server{
		router:  gin.Default(),
		plans:   plans,
		rngPort: rngPort,
		conv:    seed.Default,
		cfg:     cfg,
		logger:  internal.DefaultLogger,
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/plans", s.handleCreatePlan)
		api.GET("/plans", s.handleListPlans)
		api.GET("/plans/:id", s.handleGetPlan)
		api.GET("/plans/:id/draws", s.handlePlanDraws)
		api.GET("/streams/:name/draws", s.handleNamedDraws)
		api.POST("/permutation", s.handlePermutation)
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr
func (s *Server) Start(addr string) error {
	s.logger.Info("[API] Starting stream server on %s", addr)
	return s.router.Run(addr)
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// writeError maps error codes to HTTP statuses. Length and seed errors are
// well-formed requests the plan rules reject.
func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.CodeLengthMismatch, errors.CodeSeedConversion:
		status = http.StatusUnprocessableEntity
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.JSON(status, errorResponse{Code: code, Error: err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
