package broadcast

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/discovery/registry"
	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Module 返回 Fx 模块
var Module = fx.Module("discovery/broadcast",
	fx.Provide(ProvideService),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In

	UnifiedCfg *config.Config   `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
	Logs       *logger.Provider `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
	ListenFunc ListenFunc       `optional:"true"`
}

// ModuleOutput Fx 输出
type ModuleOutput struct {
	fx.Out

	Registry *registry.Registry
	Service  *Service
}

// ProvideService 提供注册表与发现服务
func ProvideService(input ModuleInput) (ModuleOutput, error) {
	cfg := ConfigFromUnified(input.UnifiedCfg)

	var opts []Option
	if input.Clock != nil {
		opts = append(opts, WithClock(input.Clock))
	}
	if input.Logs != nil {
		opts = append(opts, WithLogger(input.Logs.Logger("broadcast")))
	}
	if input.Metrics != nil {
		opts = append(opts, WithMetrics(input.Metrics))
	}
	if input.ListenFunc != nil {
		opts = append(opts, WithListenFunc(input.ListenFunc))
	}

	regLog := logger.Discard()
	if input.Logs != nil {
		regLog = input.Logs.Logger("registry")
	}
	reg := registry.New(cfg.InstanceTimeout, input.Clock, regLog, input.Metrics)

	svc, err := NewService(cfg, reg, opts...)
	if err != nil {
		reg.Close()
		return ModuleOutput{}, err
	}
	return ModuleOutput{Registry: reg, Service: svc}, nil
}

// lifecycleInput 生命周期注册输入
type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Service    *Service
	UnifiedCfg *config.Config `optional:"true"`
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(input lifecycleInput) {
	cfg := ConfigFromUnified(input.UnifiedCfg)

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !cfg.Enabled {
				return nil
			}
			// 绑定失败由 Listener 自行退避重试，不阻止应用启动
			return input.Service.StartListening()
		},
		OnStop: func(_ context.Context) error {
			return input.Service.Close()
		},
	})
}
