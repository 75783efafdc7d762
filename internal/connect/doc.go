// Package connect 实现附加前的连接建立
//
// 附加调试器之前，目标实例未必已经开始接受连接（例如仍在启动）。
// Establisher 对目标 TCP 端点做有界、可取消的重试探测：
//
//	Probing(n) ──成功──▶ Success
//	    │
//	    ├──失败且 n < MaxAttempts──▶ RetryWait(n+1) ──Interval──▶ Probing(n+1)
//	    ├──失败且 n = MaxAttempts──▶ Exhausted
//	    └──取消──▶ Cancelled
//
// 探测成功只证明端点可达，建立的连接会立即关闭，真正的调试会话由
// 调用方之后另行建立。
//
// 取消通过 channel 与 context 传递，RetryWait 中的取消立即生效；
// 进行中的探测也会随之中止。取消请求之后才完成的探测一律按 Cancelled
// 处理，不会报告成功。
//
// 每次尝试（Attempt）持有独立的状态，多个尝试之间不共享可变数据。
package connect
