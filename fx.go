package attach

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/bridge"
	"github.com/shards-lang/go-attach/internal/connect"
	"github.com/shards-lang/go-attach/internal/discovery/broadcast"
	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/session"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置、日志、时钟、指标注册表
//  2. Discovery: Registry → Service
//  3. Connect: Establisher
//  4. Session: Attacher
//  5. Bridge（可选）
func buildFxApp(o *options, c *Client) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	reg, gatherer := metricsRegistry(o.registerer)

	modules := []fx.Option{
		// 配置注入
		fx.Supply(o.config),
		fx.Supply(c.logs),
		fx.Provide(func() clock.Clock { return o.clock }),
		fx.Provide(func() prometheus.Registerer { return reg }),
		fx.Provide(func() prometheus.Gatherer { return gatherer }),

		metrics.Module,
		broadcast.Module,
		connect.Module,
		session.Module,
	}

	// 宿主协作方（可选）
	if o.prober != nil {
		modules = append(modules, fx.Provide(func() connect.Prober { return o.prober }))
	}
	if o.launcher != nil {
		modules = append(modules, fx.Provide(func() session.Launcher { return o.launcher }))
	}
	if o.notifier != nil {
		modules = append(modules, fx.Provide(func() session.Notifier { return o.notifier }))
	}

	if o.bridge {
		modules = append(modules, bridge.Module)
	}

	modules = append(modules, o.fxOptions...)
	modules = append(modules,
		fx.Invoke(injectClientComponents(c)),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: fxZapLogger(o.config)}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// metricsRegistry 决定指标注册与读取的位置
func metricsRegistry(reg prometheus.Registerer) (prometheus.Registerer, prometheus.Gatherer) {
	if reg == nil {
		r := prometheus.NewRegistry()
		return r, r
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		return reg, g
	}
	return reg, prometheus.DefaultGatherer
}

// fxZapLogger Fx 事件日志默认关闭，避免干扰用户日志
func fxZapLogger(cfg *config.Config) *zap.Logger {
	if !cfg.Log.FXEvents {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// logProvider 选择日志来源
func logProvider(o *options) *logger.Provider {
	if o.logger != nil {
		return logger.FromLogger(o.logger)
	}
	return logger.NewProvider(logger.ParseConfig(o.config.Log.Level, o.config.Log.Format), nil)
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入
// ════════════════════════════════════════════════════════════════════════════

// clientComponents Client 组件注入参数
type clientComponents struct {
	fx.In

	Service     *broadcast.Service
	Establisher *connect.Establisher
	Attacher    *session.Attacher
	Bridge      *bridge.Server `optional:"true"`
}

// injectClientComponents 把 Fx 构造的组件交给 Client
func injectClientComponents(c *Client) func(clientComponents) {
	return func(p clientComponents) {
		c.service = p.Service
		c.est = p.Establisher
		c.attacher = p.Attacher
		c.bridge = p.Bridge
	}
}
