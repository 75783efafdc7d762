package bridge

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/discovery/broadcast"
	"github.com/shards-lang/go-attach/internal/session"
)

// 预定义错误
var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("bridge: invalid config")

	// ErrNilDiscovery 发现服务为 nil
	ErrNilDiscovery = errors.New("bridge: discovery is nil")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("bridge: already started")

	// ErrStopped 已停止
	ErrStopped = errors.New("bridge: stopped")
)

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	var launchErr *session.LaunchError
	switch {
	case errors.Is(err, session.ErrUnknownInstance):
		return http.StatusNotFound
	case errors.Is(err, connect.ErrExhausted):
		return http.StatusGatewayTimeout
	case errors.Is(err, connect.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, session.ErrLaunchRejected), errors.As(err, &launchErr):
		return http.StatusBadGateway
	case errors.Is(err, broadcast.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, connect.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler 统一错误响应
type errorHandler struct {
	log *slog.Logger
}

// Handle 实现 echo.HTTPErrorHandler
func (h errorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}

	if status >= http.StatusInternalServerError {
		h.log.Warn("HTTP 请求失败", "path", c.Path(), "status", status, "err", err)
	} else {
		h.log.Debug("HTTP 请求失败", "path", c.Path(), "status", status, "err", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, ErrorResponse{Error: msg})
}
