package types

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// ServiceName 广播报文中 service 字段的协议族标识
const ServiceName = "shards-debug-adapter"

// ============================================================================
//                              Announcement
// ============================================================================

// Announcement 远程实例周期性广播的报文
type Announcement struct {
	// Service 协议族标识，必须等于 ServiceName
	Service string `json:"service"`

	// Instance 实例信息
	Instance AnnouncedInstance `json:"instance"`

	// Version 协议版本（当前不校验）
	Version string `json:"version"`

	// Capabilities 能力表（当前不使用）
	Capabilities Capabilities `json:"capabilities,omitempty"`
}

// UnmarshalJSON 解码报文
//
// version 与 capabilities 宽松解码：类型不符时视为缺省，不让整个报文失效。
func (a *Announcement) UnmarshalJSON(data []byte) error {
	type plain Announcement
	var raw struct {
		plain
		Version      json.RawMessage `json:"version"`
		Capabilities json.RawMessage `json:"capabilities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Announcement(raw.plain)
	a.Version = ""
	a.Capabilities = nil

	var version string
	if len(raw.Version) > 0 && json.Unmarshal(raw.Version, &version) == nil {
		a.Version = version
	}
	var caps Capabilities
	if len(raw.Capabilities) > 0 && json.Unmarshal(raw.Capabilities, &caps) == nil {
		a.Capabilities = caps
	}
	return nil
}

// AnnouncedInstance 报文中的 instance 对象
type AnnouncedInstance struct {
	Name     string `json:"name,omitempty"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol,omitempty"`
	Args     string `json:"args,omitempty"`
}

// Capabilities 能力表
//
// 解码时只保留布尔值，其它类型的值被忽略而不是让整个报文失效，
// 以便与未来版本的运行时保持互通。
type Capabilities map[string]bool

// UnmarshalJSON 宽松解码能力表
func (c *Capabilities) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	out := make(Capabilities, len(raw))
	for k, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			continue
		}
		out[k] = b
	}
	*c = out
	return nil
}

// DecodeAnnouncement 解码并验证一个 UDP 数据报
//
// 返回的错误总是包装 ErrNotUTF8、ErrMalformed、ErrWrongService
// 或 ErrInvalidPort 之一。
func DecodeAnnouncement(data []byte) (*Announcement, error) {
	return DecodeAnnouncementFor(data, ServiceName)
}

// DecodeAnnouncementFor 与 DecodeAnnouncement 相同，但要求 service 等于给定值
func DecodeAnnouncementFor(data []byte, service string) (*Announcement, error) {
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}

	var a Announcement
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if a.Service != service {
		return nil, fmt.Errorf("%w: %q", ErrWrongService, a.Service)
	}

	if a.Instance.Port < 1 || a.Instance.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, a.Instance.Port)
	}

	return &a, nil
}

// Encode 编码为线格式（测试与模拟广播使用）
func (a *Announcement) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// NewAnnouncement 构造一个指向给定端口的报文
func NewAnnouncement(name string, port int) *Announcement {
	return &Announcement{
		Service: ServiceName,
		Instance: AnnouncedInstance{
			Name: name,
			Port: port,
		},
		Version:      "1.0",
		Capabilities: Capabilities{},
	}
}
