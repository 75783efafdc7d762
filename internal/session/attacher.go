package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// 用户可见消息
const (
	// NoRunningInstancesMessage 没有运行中实例时的警告
	NoRunningInstancesMessage = "No running Shards instances found. Make sure Shards applications are running with debug mode enabled."

	// ChoosePlaceholder 选择列表的提示
	ChoosePlaceholder = "Select a Shards runtime instance to attach to"
)

// Source 实例快照来源
type Source interface {
	Instances() []types.Instance
}

// Attacher 附加流程
type Attacher struct {
	source   Source
	est      *connect.Establisher
	launcher Launcher
	notifier Notifier
	defaults config.ConnectConfig
	log      *slog.Logger
}

// Option Attacher 选项
type Option func(*Attacher)

// WithLauncher 设置 Launcher，缺省为 NopLauncher
func WithLauncher(l Launcher) Option {
	return func(a *Attacher) {
		a.launcher = l
	}
}

// WithNotifier 设置 Notifier，缺省丢弃消息
func WithNotifier(n Notifier) Option {
	return func(a *Attacher) {
		a.notifier = n
	}
}

// WithDefaults 设置启动配置缺省字段的回落值
//
// 其中的重试次数与间隔同样用于按实例附加。
func WithDefaults(c config.ConnectConfig) Option {
	return func(a *Attacher) {
		a.defaults = c
	}
}

// WithLogger 设置 Logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Attacher) {
		a.log = l
	}
}

// New 创建 Attacher
func New(source Source, est *connect.Establisher, opts ...Option) (*Attacher, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if est == nil {
		return nil, ErrNilEstablisher
	}

	a := &Attacher{
		source:   source,
		est:      est,
		defaults: config.DefaultConnectConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.launcher == nil {
		a.launcher = NopLauncher{}
	}
	if a.notifier == nil {
		a.notifier = nopNotifier{}
	}
	a.log = logger.OrDiscard(a.log)
	return a, nil
}

// Attach 附加到实例
//
// opts 在调试配置之后应用，可覆盖重试参数或设置进度回调。
func (a *Attacher) Attach(ctx context.Context, inst types.Instance, opts ...connect.AttemptOption) error {
	return a.attach(ctx, inst.Name, a.configurationFor(inst), opts)
}

// configurationFor 以默认连接配置中的重试参数生成实例的调试配置
func (a *Attacher) configurationFor(inst types.Instance) DebugConfiguration {
	cfg := ConfigurationFor(inst)
	cfg.MaxRetries = a.defaults.MaxRetries
	cfg.RetryInterval = a.defaults.RetryInterval.Milliseconds()
	return cfg
}

// AttachByID 按 ID 在当前快照中查找实例并附加
func (a *Attacher) AttachByID(ctx context.Context, id string, opts ...connect.AttemptOption) error {
	inst, ok := types.FindByID(a.source.Instances(), id)
	if !ok {
		return ErrUnknownInstance
	}
	return a.Attach(ctx, inst, opts...)
}

// SelectAndAttach 让用户在运行中的实例里选择一个并附加
//
// 用户放弃选择时返回 nil。
func (a *Attacher) SelectAndAttach(ctx context.Context, chooser Chooser, opts ...connect.AttemptOption) error {
	running := types.Running(a.source.Instances())
	if len(running) == 0 {
		a.notifier.ShowWarning(NoRunningInstancesMessage)
		return ErrNoRunningInstances
	}

	items := make([]Choice, 0, len(running))
	for _, inst := range running {
		items = append(items, choiceFor(inst))
	}

	idx, ok, err := chooser.Choose(ctx, ChoosePlaceholder, items)
	if err != nil {
		return err
	}
	if !ok || idx < 0 || idx >= len(items) {
		a.log.Debug("用户放弃选择")
		return nil
	}
	return a.Attach(ctx, items[idx].Instance, opts...)
}

// AttachLaunch 按编辑器启动配置附加，缺省字段取自默认连接配置
func (a *Attacher) AttachLaunch(ctx context.Context, lc config.LaunchConfig, opts ...connect.AttemptOption) error {
	resolved := lc.Resolve(a.defaults)
	cfg := ConfigurationForConnect(resolved)
	return a.attach(ctx, cfg.Endpoint().String(), cfg, opts)
}

// attach 建立连接并启动会话
func (a *Attacher) attach(ctx context.Context, name string, cfg DebugConfiguration, extra []connect.AttemptOption) error {
	log := a.log.With("name", name, "target", cfg.Endpoint().String())

	opts := make([]connect.AttemptOption, 0, len(extra)+2)
	opts = append(opts,
		connect.WithMaxAttempts(cfg.MaxRetries),
		connect.WithInterval(cfg.Interval()),
	)
	opts = append(opts, extra...)

	err := a.est.Establish(ctx, cfg.Endpoint(), opts...)
	switch {
	case err == nil:
	case errors.Is(err, connect.ErrCancelled):
		log.Debug("附加已取消")
		return err
	case errors.Is(err, connect.ErrExhausted):
		a.notifier.ShowError(err.Error())
		return err
	default:
		launchErr := &LaunchError{Name: name, Err: err}
		a.notifier.ShowError(launchErr.Error())
		return launchErr
	}

	ok, err := a.launcher.StartDebugging(ctx, cfg)
	if err != nil {
		launchErr := &LaunchError{Name: name, Err: err}
		log.Warn("启动调试会话失败", "err", err)
		a.notifier.ShowError(launchErr.Error())
		return launchErr
	}
	if !ok {
		log.Warn("宿主拒绝启动调试会话")
		a.notifier.ShowError(fmt.Sprintf("Failed to attach to %q", name))
		return ErrLaunchRejected
	}

	log.Info("已附加到实例")
	return nil
}
