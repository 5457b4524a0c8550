package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/auth"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/config"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/handler"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/logger"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/metrics"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/middleware"
	"github.com/ridwanfathin/vetclinic-billing-service/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Ledger  service.LedgerService
	DB      handler.Pinger
	Tokens  *auth.JWTManager
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Server represents the HTTP server for the billing service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, deps Deps) *Server {
	router := NewRouter(deps)

	return &Server{
		router: router,
		logger: deps.Logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestResponseLogger(deps.Logger))
	router.Use(middleware.HTTPMetrics(deps.Metrics))
	router.Use(middleware.ErrorHandler(deps.Logger))

	handler.NewHealthHandler(deps.DB).RegisterRoutes(router)
	handler.NewInvoiceHandler(deps.Ledger).RegisterRoutes(router, middleware.AuthMiddleware(deps.Tokens))

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	return router
}

// Router returns the gin router instance
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves requests until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Infow("server exited gracefully")
	return nil
}
