package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

// Server exposes a bridge over loopback HTTP.
type Server struct {
	bridge  *bridge.Bridge
	engine  *gin.Engine
	started time.Time
}

// New builds the gin router for b.
func New(b *bridge.Bridge) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		bridge:  b,
		engine:  gin.New(),
		started: time.Now(),
	}
	s.engine.Use(gin.Recovery(), requestID(), accessLog())

	s.engine.GET("/healthz", s.health)
	ipc := s.engine.Group("/ipc")
	{
		ipc.POST("/invoke/:channel", s.invoke)
		ipc.POST("/send/:channel", s.send)
		ipc.GET("/events/:channel", s.events)
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("[Gateway] listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Event streams only end when their client disconnects; Close them after the timeout.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warning("[Gateway] graceful shutdown failed: %v", err)
		_ = srv.Close()
	}
	logging.Info("[Gateway] stopped")
	return nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("[Gateway] %s %s -> %d (%s) id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond), c.GetString("request_id"))
	}
}
