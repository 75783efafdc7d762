package attach

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/bridge"
	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/discovery/broadcast"
	"github.com/shards-lang/go-attach/internal/discovery/hub"
	"github.com/shards-lang/go-attach/internal/session"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              客户端状态
// ════════════════════════════════════════════════════════════════════════════

// ClientState 客户端状态
type ClientState int

const (
	// StateIdle 已创建，未启动
	StateIdle ClientState = iota
	// StateRunning 运行中
	StateRunning
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态名称
func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	// startTimeout Fx 应用启动超时
	startTimeout = 15 * time.Second

	// stopTimeout Fx 应用停止超时
	stopTimeout = 10 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              Client
// ════════════════════════════════════════════════════════════════════════════

// Client 发现与附加客户端
//
// 所有方法可以从任意 goroutine 调用。
type Client struct {
	opts *options
	app  *fx.App
	logs *logger.Provider
	log  *slog.Logger

	mu    sync.Mutex
	state ClientState

	// 由 Fx 注入
	service  *broadcast.Service
	est      *connect.Establisher
	attacher *session.Attacher
	bridge   *bridge.Server
}

// New 创建客户端
//
// 创建后需要调用 Start 才会开始监听广播。
func New(opts ...Option) (*Client, error) {
	return newClient(os.LookupEnv, opts...)
}

func newClient(lookup config.LookupFunc, opts ...Option) (*Client, error) {
	o, err := newOptions(lookup, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{opts: o}
	c.logs = logProvider(o)
	c.log = c.logs.Logger("attach")

	c.app, err = buildFxApp(o, c)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return c, nil
}

// Start 快捷启动函数，等价于 New() + Client.Start()
func Start(ctx context.Context, opts ...Option) (*Client, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start client: %w", err)
	}
	return c, nil
}

// Start 启动客户端
//
// 发现端口暂时无法绑定时不会失败，监听器在后台退避重试。
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := c.app.Start(startCtx); err != nil {
		c.log.Error("客户端启动失败", "err", err)
		return fmt.Errorf("start failed: %w", err)
	}

	c.state = StateRunning
	c.log.Info("客户端已启动",
		"discovery", c.opts.config.Discovery.Port,
		"listening", c.service.Listening())
	return nil
}

// Close 停止监听、取消所有定时器并释放资源，可重复调用
func (c *Client) Close() error {
	c.mu.Lock()
	prev := c.state
	c.state = StateClosed
	c.mu.Unlock()

	if prev == StateClosed {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var err error
	if prev == StateRunning {
		err = c.app.Stop(ctx)
	} else {
		// 未启动时 OnStop 不会执行，直接释放
		err = multierr.Append(err, c.service.Close())
		if c.bridge != nil {
			err = multierr.Append(err, c.bridge.Stop(ctx))
		}
	}

	c.log.Info("客户端已关闭")
	return err
}

// State 返回客户端状态
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// checkOpen 已关闭时返回 ErrClosed
func (c *Client) checkOpen() error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              发现
// ════════════════════════════════════════════════════════════════════════════

// Instances 返回当前实例列表（首次发现顺序）
func (c *Client) Instances() []types.Record {
	return types.Records(c.service.Instances())
}

// Instance 按 ID 查找实例
func (c *Client) Instance(id string) (types.Instance, bool) {
	return types.FindByID(c.service.Instances(), id)
}

// Subscribe 订阅实例列表变更
//
// fn 立即收到一次当前列表，之后每次变更都会收到完整列表。
// 客户端已关闭或 fn 为 nil 时返回零值。
func (c *Client) Subscribe(fn func([]types.Record)) Subscription {
	if fn == nil {
		return 0
	}
	h := c.service.Subscribe(func(list []types.Instance) {
		fn(types.Records(list))
	})
	return Subscription(h)
}

// Unsubscribe 取消订阅
func (c *Client) Unsubscribe(s Subscription) bool {
	return c.service.Unsubscribe(hub.Handle(s))
}

// Refresh 把所有实例标记为未运行并确保正在监听
func (c *Client) Refresh() error {
	switch c.State() {
	case StateClosed:
		return ErrClosed
	case StateIdle:
		return ErrNotStarted
	}
	return c.service.Refresh()
}

// Listening 报告发现套接字是否已绑定
func (c *Client) Listening() bool {
	return c.service.Listening()
}

// DiscoveryAddr 返回发现套接字地址，未监听时为 nil
func (c *Client) DiscoveryAddr() net.Addr {
	return c.service.LocalAddr()
}

// BridgeAddr 返回 HTTP 桥地址，未启用或未启动时为 nil
func (c *Client) BridgeAddr() net.Addr {
	if c.bridge == nil {
		return nil
	}
	return c.bridge.Addr()
}

// ════════════════════════════════════════════════════════════════════════════
//                              附加
// ════════════════════════════════════════════════════════════════════════════

// Attach 确认实例可达后交给 Launcher
func (c *Client) Attach(ctx context.Context, inst types.Instance, opts ...AttemptOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.attacher.Attach(ctx, inst, opts...)
}

// AttachByID 按 ID 附加
func (c *Client) AttachByID(ctx context.Context, id string, opts ...AttemptOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.attacher.AttachByID(ctx, id, opts...)
}

// SelectAndAttach 让用户从运行中的实例里选择一个并附加
func (c *Client) SelectAndAttach(ctx context.Context, chooser Chooser, opts ...AttemptOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.attacher.SelectAndAttach(ctx, chooser, opts...)
}

// AttachLaunch 按编辑器启动配置附加
func (c *Client) AttachLaunch(ctx context.Context, lc config.LaunchConfig, opts ...AttemptOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.attacher.AttachLaunch(ctx, lc, opts...)
}

// Probe 只确认端点可达，不启动会话
//
// 成功返回 nil；用尽返回 *ExhaustedError；取消返回 ErrCancelled。
func (c *Client) Probe(ctx context.Context, ep types.Endpoint, opts ...AttemptOption) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.est.Establish(ctx, ep, opts...)
}
