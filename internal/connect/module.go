package connect

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

// Module 返回 Fx 模块
var Module = fx.Module("connect",
	fx.Provide(ProvideEstablisher),
)

// ModuleInput Fx 输入参数
type ModuleInput struct {
	fx.In

	UnifiedCfg *config.Config   `optional:"true"`
	Prober     Prober           `optional:"true"`
	Clock      clock.Clock      `optional:"true"`
	Logs       *logger.Provider `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

// ProvideEstablisher 提供连接建立器
func ProvideEstablisher(input ModuleInput) (*Establisher, error) {
	opts := []Option{WithMetrics(input.Metrics)}
	if input.Prober != nil {
		opts = append(opts, WithProber(input.Prober))
	}
	if input.Clock != nil {
		opts = append(opts, WithClock(input.Clock))
	}
	if input.Logs != nil {
		opts = append(opts, WithLogger(input.Logs.Logger("connect")))
	}
	return New(ConfigFromUnified(input.UnifiedCfg), opts...)
}
