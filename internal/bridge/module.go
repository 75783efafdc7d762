package bridge

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/discovery/broadcast"
	"github.com/shards-lang/go-attach/internal/session"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Module 返回 Fx 模块
//
// 只在显式启用 HTTP 桥时加入应用。
var Module = fx.Module("bridge",
	fx.Provide(ProvideServer),
	fx.Invoke(registerLifecycle),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In

	Service  *broadcast.Service
	Attacher *session.Attacher `optional:"true"`

	UnifiedCfg *config.Config      `optional:"true"`
	Gatherer   prometheus.Gatherer `optional:"true"`
	Logs       *logger.Provider    `optional:"true"`
}

// ProvideServer 提供 HTTP 桥
func ProvideServer(input ModuleInput) (*Server, error) {
	var opts []Option
	if input.Gatherer != nil {
		opts = append(opts, WithGatherer(input.Gatherer))
	}
	if input.Logs != nil {
		opts = append(opts, WithLogger(input.Logs.Logger("bridge")))
	}

	// 避免把 nil *session.Attacher 装进非 nil 接口
	var attacher Attacher
	if input.Attacher != nil {
		attacher = input.Attacher
	}
	return New(ConfigFromUnified(input.UnifiedCfg), input.Service, attacher, opts...)
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}
