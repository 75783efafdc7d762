// Package broadcast 实现基于 UDP 广播的被动实例发现
//
// 正在运行的 Shards 实例周期性地向发现端口（默认 57426）发送
// JSON 报文：
//
//	{
//	  "service": "shards-debug-adapter",
//	  "instance": {"name": "game", "port": 57427, "protocol": "dap", "args": "shards run game.shs"},
//	  "version": "1.0",
//	  "capabilities": {}
//	}
//
// 本包只监听，不发送。组成：
//   - Listener: 绑定 UDP 套接字，单一读 goroutine 按接收顺序投递数据报；
//     套接字失败后按固定退避自动重新监听
//   - Service: 解码报文并写入注册表，提供 start/stop/refresh/dispose
//   - Module: Fx 模块，随应用生命周期启动与释放
//
// 无效或不属于本协议的数据报被静默丢弃：计入指标，以 trace 级别记录
// （每个来源首次丢弃为 debug），永远不会到达订阅者。
//
// # 回调约束
//
// 订阅回调在注册表通知锁内同步执行，回调中不得同步修改注册表。
// 由数据报触发的回调还运行在 Listener 的读 goroutine 上，而
// Service.StopListening、Service.Close 与 Listener.Stop 都会等待读
// goroutine 退出，因此回调中同步调用它们会死锁；需要时另起 goroutine。
package broadcast
