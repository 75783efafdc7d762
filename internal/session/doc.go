// Package session 实现附加流程
//
// Attacher 把发现到的实例（或编辑器启动配置）转换为调试配置，
// 先通过 connect.Establisher 确认目标可达，再交给外部的 Launcher
// 启动调试会话。失败通过 Notifier 告知用户：
//
//   - 重试用尽：展示包含端点、次数与耗时的消息
//   - Launcher 返回错误：展示 `Error attaching to "<name>": <err>`
//   - 被取消：不展示任何消息
//
// Launcher、Notifier 与 Chooser 都是宿主（编辑器、CLI、桥接服务）
// 提供的协作方，本包只依赖接口。
package session
