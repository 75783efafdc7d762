package connect

import (
	"context"
	"net"
	"time"

	"github.com/shards-lang/go-attach/pkg/types"
)

//go:generate mockgen -source=probe.go -destination=mocks/mock_prober.go -package=mocks

// Prober 可达性探测
type Prober interface {
	// Probe 在 timeout 内确认 target 接受连接
	//
	// ctx 取消时应尽快返回。
	Probe(ctx context.Context, target types.Endpoint, timeout time.Duration) error
}

// DialProber 以 TCP 连接作为探测
//
// 连接成功后立即关闭。
type DialProber struct {
	// Dialer 可选的基础 Dialer，Timeout 字段会被覆盖
	Dialer *net.Dialer
}

var _ Prober = DialProber{}

// Probe 实现 Prober
func (p DialProber) Probe(ctx context.Context, target types.Endpoint, timeout time.Duration) error {
	var d net.Dialer
	if p.Dialer != nil {
		d = *p.Dialer
	}
	d.Timeout = timeout

	conn, err := d.DialContext(ctx, "tcp", target.String())
	if err != nil {
		return &ProbeError{Target: target, Err: err}
	}
	_ = conn.Close()
	return nil
}
