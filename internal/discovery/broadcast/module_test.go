package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/discovery/registry"
	"github.com/shards-lang/go-attach/internal/util/logger"
)

func testUnifiedConfig(enabled bool) *config.Config {
	cfg := config.NewConfig()
	cfg.Discovery = cfg.Discovery.WithListenAddress("127.0.0.1").WithPort(0)
	cfg.Discovery.Enabled = enabled
	return cfg
}

// TestModule 测试 Fx 模块生命周期
func TestModule(t *testing.T) {
	var (
		svc *Service
		reg *registry.Registry
	)
	app := fxtest.New(t,
		fx.Supply(testUnifiedConfig(true)),
		fx.Supply(logger.NewProvider(logger.ParseConfig("error", "text"), nil)),
		Module,
		fx.Populate(&svc, &reg),
	)
	app.RequireStart()
	require.NotNil(t, svc)
	assert.Same(t, reg, svc.Registry())
	assert.True(t, svc.Listening())

	app.RequireStop()
	assert.False(t, svc.Listening())
	assert.ErrorIs(t, svc.StartListening(), ErrClosed)
}

// TestModule_Disabled 测试关闭发现时不监听
func TestModule_Disabled(t *testing.T) {
	var svc *Service
	app := fxtest.New(t,
		fx.Supply(testUnifiedConfig(false)),
		Module,
		fx.Populate(&svc),
	)
	app.RequireStart()
	assert.False(t, svc.Listening())
	app.RequireStop()
}

// TestConfigFromUnified 测试配置转换
func TestConfigFromUnified(t *testing.T) {
	cfg := ConfigFromUnified(config.NewConfig())
	assert.Equal(t, DefaultConfig(), cfg)

	assert.Equal(t, DefaultConfig(), ConfigFromUnified(nil))
}
