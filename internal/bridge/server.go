package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/discovery/hub"
	"github.com/shards-lang/go-attach/internal/discovery/registry"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// Discovery 桥依赖的发现服务
type Discovery interface {
	Instances() []types.Instance
	Subscribe(cb registry.Callback) hub.Handle
	Unsubscribe(h hub.Handle) bool
	Refresh() error
	Listening() bool
}

// Attacher 桥依赖的附加入口
type Attacher interface {
	AttachByID(ctx context.Context, id string, opts ...connect.AttemptOption) error
}

// Server HTTP 桥
type Server struct {
	cfg      Config
	disc     Discovery
	attacher Attacher
	gatherer prometheus.Gatherer
	log      *slog.Logger

	echo     *echo.Echo
	upgrader websocket.Upgrader

	mu      sync.Mutex
	ln      net.Listener
	serveCh chan error
	quit    chan struct{}
	watches sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

// Option 可选依赖
type Option func(*Server)

// WithGatherer 设置 /metrics 的数据来源，缺省为 prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger 设置 Logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New 创建 HTTP 桥
//
// attacher 为 nil 时附加路由返回 501。
func New(cfg *Config, disc Discovery, attacher Attacher, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if disc == nil {
		return nil, ErrNilDiscovery
	}

	s := &Server{
		cfg:      *cfg,
		disc:     disc,
		attacher: attacher,
		quit:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDiscard(s.log)
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	s.echo = s.newEcho()
	return s, nil
}

// newEcho 注册路由与中间件
func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler{log: s.log}.Handle

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Log(c.Request().Context(), logger.LevelTrace, "HTTP 请求",
				"method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.GET("/instances", s.handleInstances)
	e.GET("/instances/watch", s.handleWatch)
	e.POST("/instances/:id/attach", s.handleAttach)
	e.POST("/refresh", s.handleRefresh)
	if s.cfg.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

// Handler 返回 HTTP 处理器（测试使用 httptest）
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start 监听并在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return ErrAlreadyStarted
	}
	select {
	case <-s.quit:
		return ErrStopped
	default:
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bridge: listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	s.echo.Listener = ln
	s.serveCh = make(chan error, 1)

	go func() {
		err := s.echo.Start("")
		if err == http.ErrServerClosed {
			err = nil
		}
		s.serveCh <- err
	}()

	s.log.Info("HTTP 桥已启动", "addr", ln.Addr().String())
	return nil
}

// Addr 返回实际监听地址，未启动时为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop 关闭服务并断开所有 WebSocket 订阅，可重复调用
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.quit)
		started := s.ln != nil
		serveCh := s.serveCh
		s.mu.Unlock()

		if started {
			s.stopErr = s.echo.Shutdown(ctx)
			if serveErr := <-serveCh; serveErr != nil && s.stopErr == nil {
				s.stopErr = serveErr
			}
		}
		s.watches.Wait()
		s.log.Debug("HTTP 桥已停止")
	})
	return s.stopErr
}

// beginWatch 登记一个 WebSocket 订阅，停止后返回 false
func (s *Server) beginWatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
		s.watches.Add(1)
		return true
	}
}

// ============================================================================
//                              路由
// ============================================================================

// healthResponse 健康检查响应
type healthResponse struct {
	Status    string `json:"status"`
	Listening bool   `json:"listening"`
	Instances int    `json:"instances"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Listening: s.disc.Listening(),
		Instances: len(s.disc.Instances()),
	})
}

func (s *Server) handleInstances(c echo.Context) error {
	return c.JSON(http.StatusOK, types.Records(s.disc.Instances()))
}

// statusResponse 操作结果
type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func (s *Server) handleRefresh(c echo.Context) error {
	if err := s.disc.Refresh(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "refreshed"})
}

func (s *Server) handleAttach(c echo.Context) error {
	if s.attacher == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "attach is not available")
	}

	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid instance id")
	}

	if err := s.attacher.AttachByID(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "attached", ID: id})
}
