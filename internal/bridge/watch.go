package bridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shards-lang/go-attach/pkg/types"
)

// latest 单槽缓冲，只保留最新快照
//
// 生产者只有注册表通知一方（已串行化），因此先清空再写入不会阻塞。
type latest struct {
	ch chan []types.Record
}

func newLatest() *latest {
	return &latest{ch: make(chan []types.Record, 1)}
}

func (l *latest) put(recs []types.Record) {
	select {
	case <-l.ch:
	default:
	}
	l.ch <- recs
}

// handleWatch 升级为 WebSocket 并推送实例列表
func (s *Server) handleWatch(c echo.Context) error {
	if !s.beginWatch() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "bridge is shutting down")
	}
	defer s.watches.Done()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade 已写回错误响应
		s.log.Debug("WebSocket 升级失败", "err", err)
		return nil
	}
	defer conn.Close()

	buf := newLatest()
	h := s.disc.Subscribe(func(list []types.Instance) {
		buf.put(types.Records(list))
	})
	if h == 0 {
		s.closeConn(conn, websocket.CloseGoingAway, "discovery closed")
		return nil
	}
	defer s.disc.Unsubscribe(h)

	s.log.Debug("WebSocket 订阅开始", "remote", c.RealIP())

	// 读循环只用于感知对端关闭
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case recs := <-buf.ch:
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteJSON(recs); err != nil {
				s.log.Debug("WebSocket 写入失败", "err", err)
				return nil
			}
		case <-gone:
			s.log.Debug("WebSocket 订阅结束", "remote", c.RealIP())
			return nil
		case <-s.quit:
			s.closeConn(conn, websocket.CloseGoingAway, "bridge stopped")
			return nil
		}
	}
}

func (s *Server) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
}
