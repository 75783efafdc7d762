package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shards-lang/go-attach/internal/discovery/hub"
	"github.com/shards-lang/go-attach/internal/discovery/registry"
	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// Service 发现服务
//
// 把 Listener 收到的数据报解码后写入注册表，并对外提供
// 开始/停止监听、刷新、订阅与释放。
type Service struct {
	cfg      *Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	registry *registry.Registry
	listener *Listener

	// badSenders 已丢弃过报文的来源，首次以 debug 记录，之后降为 trace
	badSenders *lru.Cache[string, struct{}]
}

// NewService 创建发现服务
func NewService(cfg *Config, reg *registry.Registry, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}

	o := applyOptions(opts)
	bad, err := lru.New[string, struct{}](badSenderCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        cfg,
		log:        logger.OrDiscard(o.log),
		metrics:    o.metrics,
		registry:   reg,
		badSenders: bad,
	}

	s.listener, err = NewListener(cfg, s.handleDatagram, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// StartListening 开始监听，已在监听时为空操作
func (s *Service) StartListening() error {
	return s.listener.Start()
}

// StopListening 停止监听并取消所有存活定时器
//
// 实例状态保持不变，直到下一次刷新或重新开始监听后的广播。
func (s *Service) StopListening() error {
	err := s.listener.Stop()
	s.registry.CancelTimers()
	return err
}

// Refresh 将所有实例标记为未运行并确保正在监听
//
// 仍在运行的实例会在下一次广播时恢复。
func (s *Service) Refresh() error {
	s.registry.MarkAllStale()
	if s.listener.Listening() {
		return nil
	}
	return s.listener.Start()
}

// Instances 返回当前实例快照
func (s *Service) Instances() []types.Instance {
	return s.registry.Snapshot()
}

// Subscribe 订阅实例变更，立即回放当前快照
//
// cb 可能在读 goroutine 上执行，不得在其中同步调用 StopListening 或 Close。
func (s *Service) Subscribe(cb registry.Callback) hub.Handle {
	return s.registry.Subscribe(cb)
}

// Unsubscribe 取消订阅
func (s *Service) Unsubscribe(h hub.Handle) bool {
	return s.registry.Unsubscribe(h)
}

// Listening 报告是否正在监听
func (s *Service) Listening() bool {
	return s.listener.Listening()
}

// LocalAddr 返回监听地址，未监听时为 nil
func (s *Service) LocalAddr() net.Addr {
	return s.listener.LocalAddr()
}

// Registry 返回底层注册表
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Close 停止监听并释放注册表
//
// 之后的 StartListening 返回 ErrClosed。
func (s *Service) Close() error {
	err := s.listener.Close()
	s.registry.Close()
	s.badSenders.Purge()
	return err
}

// ============================================================================
//                              数据报处理
// ============================================================================

// handleDatagram 解码一个数据报并写入注册表
func (s *Service) handleDatagram(data []byte, from net.Addr) {
	s.metrics.DatagramReceived()
	source := sourceAddress(from)

	msg, err := types.DecodeAnnouncementFor(data, s.cfg.ServiceName)
	if err != nil {
		s.metrics.DatagramDropped(dropReason(err))
		s.logDrop(source, err)
		return
	}

	s.registry.Upsert(msg, source)
}

// logDrop 每个来源首次丢弃以 debug 记录，之后以 trace 记录
func (s *Service) logDrop(source string, err error) {
	level := logger.LevelTrace
	if seen, _ := s.badSenders.ContainsOrAdd(source, struct{}{}); !seen {
		level = slog.LevelDebug
	}
	s.log.Log(context.Background(), level, "丢弃数据报", "from", source, "reason", err)
}

// dropReason 将解码错误映射为指标标签
func dropReason(err error) string {
	switch {
	case errors.Is(err, types.ErrNotUTF8):
		return metrics.DropNotUTF8
	case errors.Is(err, types.ErrWrongService):
		return metrics.DropWrongService
	case errors.Is(err, types.ErrInvalidPort):
		return metrics.DropInvalidPort
	default:
		return metrics.DropMalformed
	}
}

// sourceAddress 提取数据报来源 IP
func sourceAddress(from net.Addr) string {
	switch a := from.(type) {
	case *net.UDPAddr:
		if ip4 := a.IP.To4(); ip4 != nil {
			return ip4.String()
		}
		return a.IP.String()
	case nil:
		return ""
	default:
		host, _, err := net.SplitHostPort(a.String())
		if err != nil {
			return a.String()
		}
		return host
	}
}
