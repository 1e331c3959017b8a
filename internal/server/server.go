package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voidnologo/bokeh-graph/internal/hub"
	"github.com/voidnologo/bokeh-graph/internal/output"
	"go.uber.org/zap"
)

// Server holds the Gin engine and dependencies for the chart preview.
type Server struct {
	engine *gin.Engine
	hub    *hub.Hub
	html   *output.HTMLRenderer
	addr   string
	logger *zap.Logger
}

// New creates a preview server. When live is true the page reloads itself
// after every rebuild announced on /ws.
func New(h *hub.Hub, addr string, live bool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	html := output.NewHTMLRenderer()
	if live {
		html.ReloadPath = "/ws"
	}

	s := &Server{
		engine: engine,
		hub:    h,
		html:   html,
		addr:   addr,
		logger: logger,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	// Chart page, rendered from the current report on every request.
	s.engine.GET("/", s.handleChart)

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		rep, gen := s.hub.Current()
		builtAt, err := s.hub.Status()
		body := gin.H{
			"status":      "ok",
			"source":      rep.Source,
			"generation":  gen,
			"built_at":    builtAt.Format(time.RFC3339),
			"buckets":     len(rep.Summaries),
			"total":       rep.Total,
			"subscribers": s.hub.Subscribers(),
		}
		if err != nil {
			body["status"] = "stale"
			body["error"] = err.Error()
		}
		c.JSON(http.StatusOK, body)
	})

	// Report API.
	s.engine.GET("/api/report", func(c *gin.Context) {
		rep, _ := s.hub.Current()
		c.JSON(http.StatusOK, rep)
	})

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

func (s *Server) handleChart(c *gin.Context) {
	rep, _ := s.hub.Current()

	var buf bytes.Buffer
	if err := s.html.Render(&buf, rep); err != nil {
		s.logger.Error("render chart", zap.Error(err))
		c.String(http.StatusInternalServerError, "render chart: %v", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving chart", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
