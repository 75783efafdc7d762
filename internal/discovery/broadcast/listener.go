package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	tec "github.com/jbenet/go-temp-err-catcher"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"

	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Handler 数据报处理函数
//
// 在读 goroutine 中同步调用，调用顺序即接收顺序。
// data 在返回后被复用，处理函数不得持有它。
type Handler func(data []byte, from net.Addr)

// restartEntry 一次已调度的重启
type restartEntry struct {
	timer *clock.Timer
}

// Listener UDP 发现套接字
//
// 同一时刻至多一个套接字。绑定或读取失败（临时错误除外）会关闭套接字
// 并在 RestartBackoff 后重新绑定，直到成功或被停止。
type Listener struct {
	cfg     *Config
	opts    *options
	log     *slog.Logger
	handler Handler

	// failLog 限制重复失败日志的频率
	failLog rate.Sometimes

	mu      sync.Mutex
	conn    net.PacketConn
	done    chan struct{}
	restart *restartEntry
	closed  bool
}

// NewListener 创建监听器
func NewListener(cfg *Config, handler Handler, opts ...Option) (*Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	o := applyOptions(opts)
	return &Listener{
		cfg:     cfg,
		opts:    o,
		log:     logger.OrDiscard(o.log),
		handler: handler,
		failLog: rate.Sometimes{First: 3, Interval: time.Minute},
	}, nil
}

// Start 开始监听
//
// 已在监听时为空操作。绑定失败不返回错误，而是记录日志并调度重启；
// 只有在 Close 之后调用才返回 ErrClosed。
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.conn != nil {
		return nil
	}
	l.startLocked()
	return nil
}

// Stop 停止监听
//
// 关闭套接字、取消尚未触发的重启，并等待读 goroutine 退出。
// 可重复调用。不得在 Handler 内调用。
func (l *Listener) Stop() error {
	l.mu.Lock()
	conn, done := l.conn, l.done
	l.conn, l.done = nil, nil
	l.cancelRestartLocked()
	l.mu.Unlock()

	if conn == nil {
		return nil
	}

	err := conn.Close()
	<-done
	l.log.Info("停止监听")
	return err
}

// Close 停止监听并释放，之后 Start 返回 ErrClosed
func (l *Listener) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return l.Stop()
}

// Listening 报告当前是否持有套接字
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// RestartPending 报告是否有已调度的重启
func (l *Listener) RestartPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.restart != nil
}

// LocalAddr 返回套接字地址，未监听时为 nil
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// ============================================================================
//                              内部方法
// ============================================================================

// startLocked 绑定套接字并启动读 goroutine，调用方持有 mu
func (l *Listener) startLocked() {
	l.cancelRestartLocked()

	addr := l.cfg.Address()
	conn, err := l.opts.listen(context.Background(), "udp4", addr)
	if err != nil {
		l.failLocked(&SocketError{Op: "bind", Addr: addr, Err: err})
		return
	}
	l.configure(conn)

	done := make(chan struct{})
	l.conn, l.done = conn, done
	go l.readLoop(conn, done)

	l.log.Info("开始监听广播", "addr", conn.LocalAddr().String())
}

// configure 设置组播 TTL，失败只记录日志
func (l *Listener) configure(conn net.PacketConn) {
	if l.cfg.MulticastTTL <= 0 {
		return
	}
	if _, ok := conn.(*net.UDPConn); !ok {
		return
	}
	if err := ipv4.NewPacketConn(conn).SetMulticastTTL(l.cfg.MulticastTTL); err != nil {
		l.log.Warn("设置组播 TTL 失败", "ttl", l.cfg.MulticastTTL, "error", err)
	}
}

// readLoop 读取数据报直到套接字关闭或出现非临时错误
func (l *Listener) readLoop(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	catcher := tec.TempErrCatcher{IsTemp: l.opts.isTemp}
	buf := make([]byte, l.cfg.ReadBufferSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if catcher.IsTemporary(err) {
				l.log.Debug("临时读错误", "error", err)
				continue
			}
			l.onReadError(conn, err)
			return
		}
		catcher.Reset()
		l.handler(buf[:n], from)
	}
}

// onReadError 读失败时拆除套接字并调度重启
//
// 套接字已被 Stop 换下时，读错误来自我们自己的关闭，忽略。
func (l *Listener) onReadError(conn net.PacketConn, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != conn {
		return
	}
	_ = conn.Close()
	l.conn, l.done = nil, nil
	l.failLocked(&SocketError{Op: "read", Addr: l.cfg.Address(), Err: err})
}

// failLocked 记录失败并调度一次重启，调用方持有 mu
func (l *Listener) failLocked(err error) {
	if l.closed {
		return
	}

	backoff := l.cfg.RestartBackoff
	l.failLog.Do(func() {
		l.log.Warn("发现套接字失败，稍后重试", "error", err, "backoff", backoff)
	})
	l.opts.metrics.ListenerRestarted()

	entry := &restartEntry{}
	entry.timer = l.opts.clock.AfterFunc(backoff, func() { l.onRestart(entry) })
	l.restart = entry
}

// onRestart 重启定时器回调
func (l *Listener) onRestart(entry *restartEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.restart != entry || l.conn != nil {
		return
	}
	l.restart = nil
	l.log.Debug("重新监听")
	l.startLocked()
}

// cancelRestartLocked 取消已调度的重启，调用方持有 mu
func (l *Listener) cancelRestartLocked() {
	if l.restart != nil {
		l.restart.timer.Stop()
		l.restart = nil
	}
}
