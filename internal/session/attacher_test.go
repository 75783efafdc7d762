package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shards-lang/go-attach/config"
	"github.com/shards-lang/go-attach/internal/connect"
	connectmocks "github.com/shards-lang/go-attach/internal/connect/mocks"
	"github.com/shards-lang/go-attach/internal/session"
	"github.com/shards-lang/go-attach/internal/session/mocks"
	"github.com/shards-lang/go-attach/pkg/types"
)

var errRefused = errors.New("connection refused")

// staticSource 固定快照
type staticSource []types.Instance

func (s staticSource) Instances() []types.Instance { return s }

func gameInstance() types.Instance {
	return types.Instance{
		Key:     types.InstanceKey{Address: "10.0.0.2", Port: 4000},
		Name:    "game",
		Args:    "shards run game.shs",
		Address: "10.0.0.2",
		Port:    4000,
		Running: true,
	}
}

// fixture 测试装置
type fixture struct {
	prober   *connectmocks.MockProber
	launcher *mocks.MockLauncher
	notifier *mocks.MockNotifier
	attacher *session.Attacher
}

func newFixture(t *testing.T, src session.Source, opts ...session.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		prober:   connectmocks.NewMockProber(ctrl),
		launcher: mocks.NewMockLauncher(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
	}

	est, err := connect.New(connect.DefaultConfig(),
		connect.WithProber(f.prober),
		connect.WithClock(clock.NewMock()),
	)
	require.NoError(t, err)

	opts = append([]session.Option{
		session.WithLauncher(f.launcher),
		session.WithNotifier(f.notifier),
	}, opts...)
	f.attacher, err = session.New(src, est, opts...)
	require.NoError(t, err)
	return f
}

// fast 让重试不等待
func fast(n int) []connect.AttemptOption {
	return []connect.AttemptOption{connect.WithMaxAttempts(n), connect.WithInterval(0)}
}

// TestConfigurationFor 测试实例的调试配置
func TestConfigurationFor(t *testing.T) {
	cfg := session.ConfigurationFor(gameInstance())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "shards",
		"request": "attach",
		"name": "Attach to game",
		"address": "10.0.0.2",
		"port": 4000,
		"maxRetries": 10,
		"retryInterval": 2000
	}`, string(data))
	assert.Equal(t, 2*time.Second, cfg.Interval())
	assert.Equal(t, "10.0.0.2:4000", cfg.Endpoint().String())
}

// TestAttach_Success 测试探测成功后启动会话
func TestAttach_Success(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	gomock.InOrder(
		f.prober.EXPECT().Probe(gomock.Any(), gameInstance().Endpoint(), gomock.Any()).Return(nil),
		f.launcher.EXPECT().
			StartDebugging(gomock.Any(), session.ConfigurationFor(gameInstance())).
			Return(true, nil),
	)

	require.NoError(t, f.attacher.Attach(context.Background(), gameInstance()))
}

// TestAttach_LaunchError 测试 Launcher 出错时通知用户
func TestAttach_LaunchError(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), gomock.Any()).Return(false, errors.New("adapter crashed"))
	f.notifier.EXPECT().ShowError(`Error attaching to "game": adapter crashed`)

	err := f.attacher.Attach(context.Background(), gameInstance())
	var launchErr *session.LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "game", launchErr.Name)
}

// TestAttach_LaunchRejected 测试 Launcher 拒绝启动
func TestAttach_LaunchRejected(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), gomock.Any()).Return(false, nil)
	f.notifier.EXPECT().ShowError(`Failed to attach to "game"`)

	err := f.attacher.Attach(context.Background(), gameInstance())
	assert.ErrorIs(t, err, session.ErrLaunchRejected)
}

// TestAttach_Exhausted 测试重试用尽时展示端点、次数与耗时
func TestAttach_Exhausted(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(errRefused).Times(2)
	f.notifier.EXPECT().ShowError("Failed to connect to 10.0.0.2:4000 after 2 attempts (0s)")

	err := f.attacher.Attach(context.Background(), gameInstance(), fast(2)...)
	assert.ErrorIs(t, err, connect.ErrExhausted)
}

// TestAttach_ConfiguredRetries 测试按实例附加使用配置中的重试参数
func TestAttach_ConfiguredRetries(t *testing.T) {
	defaults := config.DefaultConnectConfig().WithMaxRetries(3).WithRetryInterval(0)
	f := newFixture(t, staticSource{gameInstance()}, session.WithDefaults(defaults))

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(errRefused).Times(3)
	f.notifier.EXPECT().ShowError("Failed to connect to 10.0.0.2:4000 after 3 attempts (0s)")

	err := f.attacher.Attach(context.Background(), gameInstance())
	assert.ErrorIs(t, err, connect.ErrExhausted)
}

// TestAttach_ConfiguredRetriesInConfiguration 测试交给 Launcher 的配置携带配置中的重试参数
func TestAttach_ConfiguredRetriesInConfiguration(t *testing.T) {
	defaults := config.DefaultConnectConfig().WithMaxRetries(4).WithRetryInterval(500 * time.Millisecond)
	f := newFixture(t, staticSource{gameInstance()}, session.WithDefaults(defaults))

	want := session.ConfigurationFor(gameInstance())
	want.MaxRetries = 4
	want.RetryInterval = 500

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), want).Return(true, nil)

	require.NoError(t, f.attacher.AttachByID(context.Background(), "10.0.0.2:4000"))
}

// TestAttach_Cancelled 测试取消时不通知、不启动
func TestAttach_Cancelled(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.attacher.Attach(ctx, gameInstance())
	assert.ErrorIs(t, err, connect.ErrCancelled)
}

// TestAttachByID 测试按 ID 附加
func TestAttachByID(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), gomock.Any()).Return(true, nil)

	require.NoError(t, f.attacher.AttachByID(context.Background(), "10.0.0.2:4000"))
	assert.ErrorIs(t, f.attacher.AttachByID(context.Background(), "10.0.0.9:4000"), session.ErrUnknownInstance)
}

// TestSelectAndAttach_NoRunning 测试没有运行中实例时给出警告
func TestSelectAndAttach_NoRunning(t *testing.T) {
	stopped := gameInstance()
	stopped.Running = false
	f := newFixture(t, staticSource{stopped})

	ctrl := gomock.NewController(t)
	chooser := mocks.NewMockChooser(ctrl)

	f.notifier.EXPECT().ShowWarning(session.NoRunningInstancesMessage)

	err := f.attacher.SelectAndAttach(context.Background(), chooser)
	assert.ErrorIs(t, err, session.ErrNoRunningInstances)
}

// TestSelectAndAttach_Declined 测试用户放弃选择
func TestSelectAndAttach_Declined(t *testing.T) {
	f := newFixture(t, staticSource{gameInstance()})

	ctrl := gomock.NewController(t)
	chooser := mocks.NewMockChooser(ctrl)
	chooser.EXPECT().Choose(gomock.Any(), session.ChoosePlaceholder, gomock.Len(1)).Return(0, false, nil)

	assert.NoError(t, f.attacher.SelectAndAttach(context.Background(), chooser))
}

// TestSelectAndAttach_OnlyRunningOffered 测试只列出运行中实例
func TestSelectAndAttach_OnlyRunningOffered(t *testing.T) {
	stopped := types.Instance{
		Key:     types.InstanceKey{Address: "10.0.0.3", Port: 4001},
		Name:    "old",
		Address: "10.0.0.3",
		Port:    4001,
	}
	editor := types.Instance{
		Key:     types.InstanceKey{Address: "10.0.0.4", Port: 4002},
		Name:    "editor",
		Args:    "shards run editor.shs",
		Address: "10.0.0.4",
		Port:    4002,
		Running: true,
	}
	f := newFixture(t, staticSource{gameInstance(), stopped, editor})

	ctrl := gomock.NewController(t)
	chooser := mocks.NewMockChooser(ctrl)

	var offered []session.Choice
	chooser.EXPECT().
		Choose(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, items []session.Choice) (int, bool, error) {
			offered = items
			return 1, true, nil
		})
	f.prober.EXPECT().Probe(gomock.Any(), editor.Endpoint(), gomock.Any()).Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), session.ConfigurationFor(editor)).Return(true, nil)

	require.NoError(t, f.attacher.SelectAndAttach(context.Background(), chooser))
	require.Len(t, offered, 2)
	assert.Equal(t, "game", offered[0].Label)
	assert.Equal(t, "10.0.0.4:4002", offered[1].Description)
	assert.Equal(t, "shards run editor.shs", offered[1].Detail)
}

// TestAttachLaunch 测试启动配置的缺省字段回落
func TestAttachLaunch(t *testing.T) {
	f := newFixture(t, staticSource{})

	port := 5000
	want := session.DebugConfiguration{
		Type:          "shards",
		Request:       "attach",
		Name:          "Attach to 127.0.0.1:5000",
		Address:       "127.0.0.1",
		Port:          5000,
		MaxRetries:    10,
		RetryInterval: 2000,
	}
	f.prober.EXPECT().
		Probe(gomock.Any(), types.Endpoint{Address: "127.0.0.1", Port: 5000}, connect.DefaultProbeTimeout).
		Return(nil)
	f.launcher.EXPECT().StartDebugging(gomock.Any(), want).Return(true, nil)

	require.NoError(t, f.attacher.AttachLaunch(context.Background(), config.LaunchConfig{Port: &port}))
}

// TestAttachLaunch_Overrides 测试启动配置覆盖重试参数
func TestAttachLaunch_Overrides(t *testing.T) {
	f := newFixture(t, staticSource{})

	addr := "192.168.1.7"
	retries := 3
	interval := config.Millis(0)

	f.prober.EXPECT().Probe(gomock.Any(), gomock.Any(), gomock.Any()).Return(errRefused).Times(3)
	f.notifier.EXPECT().ShowError("Failed to connect to 192.168.1.7:57427 after 3 attempts (0s)")

	err := f.attacher.AttachLaunch(context.Background(), config.LaunchConfig{
		Address:       &addr,
		MaxRetries:    &retries,
		RetryInterval: &interval,
	})
	assert.ErrorIs(t, err, connect.ErrExhausted)
}

// TestAttachLaunch_InvalidTarget 测试无效目标
func TestAttachLaunch_InvalidTarget(t *testing.T) {
	f := newFixture(t, staticSource{})

	port := 0
	f.notifier.EXPECT().ShowError(gomock.Any())

	err := f.attacher.AttachLaunch(context.Background(), config.LaunchConfig{Port: &port})
	assert.ErrorIs(t, err, connect.ErrInvalidConfig)
}

// TestNew_Validation 测试必需依赖
func TestNew_Validation(t *testing.T) {
	est, err := connect.New(nil)
	require.NoError(t, err)

	_, err = session.New(nil, est)
	assert.ErrorIs(t, err, session.ErrNilSource)

	_, err = session.New(staticSource{}, nil)
	assert.ErrorIs(t, err, session.ErrNilEstablisher)

	a, err := session.New(staticSource{}, est)
	require.NoError(t, err)
	assert.NotNil(t, a)
}
