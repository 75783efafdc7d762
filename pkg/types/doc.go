// Package types 定义发现与附加流程的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - instance.go     - Instance, InstanceKey, Record（注册表条目与外部观察者视图）
//   - announcement.go - Announcement（UDP 广播报文）及其解码
//   - endpoint.go     - Endpoint（附加目标地址）
//   - errors.go       - 公共错误定义
//
// # 线格式
//
// 运行时实例以单个 UDP 数据报广播 UTF-8 JSON：
//
//	{ "service": "shards-debug-adapter",
//	  "instance": { "name": "...", "port": 57427, "protocol": "...", "args": "..." },
//	  "version": "...",
//	  "capabilities": { "breakpoints": true } }
//
// 未知字段被忽略；service 不匹配的报文整体丢弃。
package types
