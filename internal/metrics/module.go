package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/shards-lang/go-attach/config"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewFromParams),
)

// NewFromParams 从参数创建 Metrics
//
// 桥关闭了 /metrics 且没有注入 Registerer 时返回 nil，
// 各组件按未启用处理。
func NewFromParams(p Params) *Metrics {
	if p.Registerer != nil {
		return New(p.Registerer)
	}
	if p.UnifiedCfg != nil && !p.UnifiedCfg.Bridge.EnableMetrics {
		return nil
	}
	return New(nil)
}
