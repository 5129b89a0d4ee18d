package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talentdao/talentdao-backend/internal/marketplace/config"
	"github.com/talentdao/talentdao-backend/internal/marketplace/handlers"
	"github.com/talentdao/talentdao-backend/internal/marketplace/metrics"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

type Server struct {
	router        *gin.Engine
	handler       *handlers.Handler
	metricsServer *metrics.Server
	httpServer    *http.Server
	logger        logging.Logger
}

func NewServer(handler *handlers.Handler, logger logging.Logger) *Server {
	if !config.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Content-Length, Accept-Encoding, Origin, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	})

	s := &Server{
		router:        router,
		handler:       handler,
		metricsServer: metrics.NewServer(config.GetMetricsPort(), logger),
		logger:        logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	api.GET("/health", s.handler.HealthCheck)

	api.POST("/wallet/connect", s.handler.ConnectWallet)
	api.POST("/wallet/disconnect", s.handler.DisconnectWallet)
	api.GET("/wallet/session", s.handler.GetSession)

	api.GET("/users/:wallet", s.handler.GetUser)
	api.PUT("/users/profile", s.handler.UpdateProfile)
	api.POST("/users/kyc", s.handler.CompleteKYC)

	api.GET("/jobs", s.handler.ListJobs)
	api.GET("/jobs/:id", s.handler.GetJob)
	api.POST("/jobs", s.handler.CreateJob)
	api.POST("/jobs/:id/apply", s.handler.ApplyForJob)
	api.POST("/jobs/:id/submit", s.handler.SubmitWork)
	api.POST("/jobs/:id/approve", s.handler.ApproveWork)
	api.POST("/jobs/:id/cancel", s.handler.CancelJob)

	api.GET("/balances/:wallet", s.handler.GetBalance)
	api.GET("/transactions/:wallet", s.handler.GetTransactions)
	api.GET("/credentials/:wallet", s.handler.ListCredentials)

	api.POST("/sync", s.handler.TriggerSync)
	api.GET("/sync/status", s.handler.SyncStatus)
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port string) error {
	s.metricsServer.Start()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Marketplace API listening on port %s", port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.metricsServer.Stop(shutdownCtx); err != nil {
		s.logger.Errorf("Metrics server shutdown failed: %v", err)
	}
	return s.httpServer.Shutdown(shutdownCtx)
}
