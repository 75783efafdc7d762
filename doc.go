// Package attach 发现局域网内运行的 Shards 实例并为调试器附加做准备
//
// 运行时实例在调试模式下周期性地向发现端口（默认 57426）广播 UDP 报文。
// Client 被动监听这些报文，维护带存活判定的实例列表；附加前以有界、
// 可取消的 TCP 重试确认目标已经接受连接，再交给宿主的 Launcher
// 启动调试会话。
//
// 快速开始：
//
//	c, err := attach.New()
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.Start(ctx); err != nil {
//	    return err
//	}
//
//	c.Subscribe(func(list []types.Record) {
//	    fmt.Println(len(list), "instances")
//	})
//
//	err = c.AttachByID(ctx, "192.168.1.20:57427")
//
// 订阅回调在注册表通知锁内同步执行，不能在回调中同步调用会修改注册表
// 的方法（Refresh 等），否则会死锁。由广播触发的回调运行在监听器的读
// goroutine 上，回调中同步调用 Close 会等待该 goroutine 自身退出，同样
// 会死锁；需要时另起 goroutine 调用。
package attach
