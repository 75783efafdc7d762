package session

import (
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/discovery/broadcast"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Module 返回 Fx 模块
var Module = fx.Module("session",
	fx.Provide(ProvideAttacher),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In

	Service     *broadcast.Service
	Establisher *connect.Establisher

	UnifiedCfg *config.Config   `optional:"true"`
	Launcher   Launcher         `optional:"true"`
	Notifier   Notifier         `optional:"true"`
	Logs       *logger.Provider `optional:"true"`
}

// ProvideAttacher 提供 Attacher
func ProvideAttacher(input ModuleInput) (*Attacher, error) {
	opts := []Option{
		WithLauncher(input.Launcher),
		WithNotifier(input.Notifier),
	}
	if input.UnifiedCfg != nil {
		opts = append(opts, WithDefaults(input.UnifiedCfg.Connect))
	}
	if input.Logs != nil {
		opts = append(opts, WithLogger(input.Logs.Logger("session")))
	}
	return New(input.Service, input.Establisher, opts...)
}
