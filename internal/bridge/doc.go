// Package bridge 为外部 UI 提供 HTTP/WebSocket 入口
//
// 路由：
//
//	GET  /instances              当前实例列表（[]types.Record）
//	GET  /instances/watch        WebSocket，订阅时推送一次，之后每次变更推送
//	POST /refresh                标记全部实例为未运行并确保监听
//	POST /instances/:id/attach   按 ID 附加
//	GET  /metrics                Prometheus 指标（可关闭）
//	GET  /healthz                健康检查
//
// WebSocket 推送只保留最新快照：客户端读取较慢时，中间快照被跳过，
// 但最后一次变更一定会送达。
package bridge
