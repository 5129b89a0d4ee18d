package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// Server exposes /metrics on its own port, next to the API server.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
	done       chan struct{}
}

func NewServer(port string, logger logging.Logger) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: corsHandler.Handler(router),
		},
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start serves metrics on a background goroutine and keeps the uptime gauge
// current.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("Metrics server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Metrics server failed: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				UptimeSeconds.Set(time.Since(startTime).Seconds())
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	close(s.done)
	return s.httpServer.Shutdown(ctx)
}
