package connect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/shards-lang/go-attach/internal/metrics"
	"github.com/shards-lang/go-attach/internal/util/logger"
	"github.com/shards-lang/go-attach/pkg/types"
)

// Establisher 连接建立器
//
// Establisher 本身无可变状态，可被任意多个并发尝试共享。
type Establisher struct {
	cfg     Config
	prober  Prober
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New 创建连接建立器
func New(cfg *Config, opts ...Option) (*Establisher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e := &Establisher{cfg: *cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.prober == nil {
		e.prober = DialProber{}
	}
	if e.clock == nil {
		e.clock = clock.New()
	}
	e.log = logger.OrDiscard(e.log)
	return e, nil
}

// Config 返回默认参数的副本
func (e *Establisher) Config() Config {
	return e.cfg
}

// NewAttempt 创建一个尚未运行的尝试
//
// 返回的 Attempt 可在 Run 之前或运行期间从任意 goroutine 取消。
func (e *Establisher) NewAttempt(target types.Endpoint, opts ...AttemptOption) (*Attempt, error) {
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := attemptSettings{
		maxAttempts:  e.cfg.MaxAttempts,
		interval:     e.cfg.Interval,
		probeTimeout: e.cfg.ProbeTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts %d", ErrInvalidConfig, s.maxAttempts)
	}
	if s.interval < 0 {
		return nil, fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = DefaultProbeTimeout
	}

	return &Attempt{
		id:       uuid.NewString(),
		target:   target,
		settings: s,
		owner:    e,
		cancelCh: make(chan struct{}),
	}, nil
}

// Establish 创建并运行一个尝试，直到成功、取消或用尽
//
// 成功返回 nil；用尽返回 *ExhaustedError；ctx 取消返回 ErrCancelled。
func (e *Establisher) Establish(ctx context.Context, target types.Endpoint, opts ...AttemptOption) error {
	a, err := e.NewAttempt(target, opts...)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
