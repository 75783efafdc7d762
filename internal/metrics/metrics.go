// Package metrics 提供发现与附加流程的监控指标
//
// 基于 prometheus/client_golang，记录：
//   - 收到与丢弃的广播数据报（按原因）
//   - 已知实例与运行中实例数量
//   - 监听套接字重启次数
//   - 探测次数与附加结果、耗时
//
// 所有方法对 nil *Metrics 安全，组件在未启用指标时直接传 nil。
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.DatagramReceived()
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shards_attach"

// 丢弃原因
const (
	DropNotUTF8      = "not_utf8"
	DropMalformed    = "malformed"
	DropWrongService = "wrong_service"
	DropInvalidPort  = "invalid_port"
)

// 附加结果
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeCancelled = "cancelled"
)

// Metrics 指标集合
type Metrics struct {
	datagrams         prometheus.Counter
	dropped           *prometheus.CounterVec
	instancesKnown    prometheus.Gauge
	instancesRunning  prometheus.Gauge
	listenerRestarts  prometheus.Counter
	probes            *prometheus.CounterVec
	establishments    *prometheus.CounterVec
	establishDuration prometheus.Histogram
}

// New 创建指标并注册到 reg
//
// reg 为 nil 时指标照常计数但不注册。
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		datagrams: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "datagrams_received_total",
			Help:      "Datagrams received on the discovery socket.",
		}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "datagrams_dropped_total",
			Help:      "Datagrams dropped before reaching the registry, by reason.",
		}, []string{"reason"}),
		instancesKnown: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "instances",
			Help:      "Instances ever discovered and still tracked.",
		}),
		instancesRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "instances_running",
			Help:      "Tracked instances currently considered running.",
		}),
		listenerRestarts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "listener_restarts_total",
			Help:      "Scheduled restarts of the discovery socket.",
		}),
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "probes_total",
			Help:      "TCP reachability probes, by result.",
		}, []string{"result"}),
		establishments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "establishments_total",
			Help:      "Connection establishment attempts, by outcome.",
		}, []string{"outcome"}),
		establishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "establish_duration_seconds",
			Help:      "Time from first probe to resolution.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
}

// DatagramReceived 记录收到一个数据报
func (m *Metrics) DatagramReceived() {
	if m == nil {
		return
	}
	m.datagrams.Inc()
}

// DatagramDropped 记录丢弃一个数据报
func (m *Metrics) DatagramDropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

// SetInstances 更新实例数量
func (m *Metrics) SetInstances(known, running int) {
	if m == nil {
		return
	}
	m.instancesKnown.Set(float64(known))
	m.instancesRunning.Set(float64(running))
}

// ListenerRestarted 记录一次监听重启调度
func (m *Metrics) ListenerRestarted() {
	if m == nil {
		return
	}
	m.listenerRestarts.Inc()
}

// Probe 记录一次探测
func (m *Metrics) Probe(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.probes.WithLabelValues(result).Inc()
}

// Established 记录一次连接建立的结果与耗时
func (m *Metrics) Established(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.establishments.WithLabelValues(outcome).Inc()
	m.establishDuration.Observe(elapsed.Seconds())
}
