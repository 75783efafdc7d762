package types

import (
	"fmt"
	"maps"
	"time"
)

// 缺省属性，与编辑器扩展展示一致
const (
	// DefaultArgs 报文未携带 args 时使用的启动参数描述
	DefaultArgs = "shards run --debug"
)

// DefaultName 报文未携带 name 时由端口派生的名称
func DefaultName(port int) string {
	return fmt.Sprintf("Shards Instance (%d)", port)
}

// ============================================================================
//                              InstanceKey
// ============================================================================

// InstanceKey 实例标识（来源地址 + 端口）
//
// 在实例被发现的整个生命周期内保持稳定，只由首次发现时的
// 来源地址与报文端口计算，不会从可变属性重新计算。
type InstanceKey struct {
	Address string
	Port    int
}

// String 返回 "<address>:<port>" 形式的标识
func (k InstanceKey) String() string {
	return fmt.Sprintf("%s:%d", k.Address, k.Port)
}

// ============================================================================
//                              Instance
// ============================================================================

// Instance 注册表中的一个远程运行时实例
type Instance struct {
	// Key 实例标识
	Key InstanceKey

	// Name 展示名称
	Name string

	// Args 启动参数描述（仅供参考）
	Args string

	// Address 来源地址
	Address string

	// Port 调试端口
	Port int

	// Running 存活标志
	Running bool

	// Protocol 实例声明的协议（仅供参考）
	Protocol string

	// Version 报文版本（未校验）
	Version string

	// Capabilities 能力表（未使用）
	Capabilities map[string]bool

	// FirstSeen 首次发现时间
	FirstSeen time.Time

	// LastSeen 最近一次收到广播的时间
	LastSeen time.Time
}

// ID 返回 "<address>:<port>" 形式的实例 ID
func (i Instance) ID() string {
	return i.Key.String()
}

// Endpoint 返回附加目标
func (i Instance) Endpoint() Endpoint {
	return Endpoint{Address: i.Address, Port: i.Port}
}

// Clone 返回深拷贝，快照不与注册表共享可变状态
func (i Instance) Clone() Instance {
	c := i
	if i.Capabilities != nil {
		c.Capabilities = maps.Clone(i.Capabilities)
	}
	return c
}

// Record 返回外部观察者视图
func (i Instance) Record() Record {
	return Record{
		ID:             i.ID(),
		Name:           i.Name,
		ExecutableArgs: i.Args,
		Port:           i.Port,
		IPAddress:      i.Address,
		IsRunning:      i.Running,
	}
}

// ============================================================================
//                              Record
// ============================================================================

// Record 注册表变更通知中暴露给外部观察者的实例视图
type Record struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExecutableArgs string `json:"executableArgs"`
	Port           int    `json:"port"`
	IPAddress      string `json:"ipAddress"`
	IsRunning      bool   `json:"isRunning"`
}

// Records 将快照转换为观察者视图，保持顺序
func Records(instances []Instance) []Record {
	out := make([]Record, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.Record())
	}
	return out
}

// Running 过滤出仍在运行的实例，保持顺序
func Running(instances []Instance) []Instance {
	out := make([]Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.Running {
			out = append(out, inst)
		}
	}
	return out
}

// FindByID 在快照中按 ID 查找实例
func FindByID(instances []Instance, id string) (Instance, bool) {
	for _, inst := range instances {
		if inst.ID() == id {
			return inst, true
		}
	}
	return Instance{}, false
}
