//go:build unix

package broadcast

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig 返回设置了 SO_REUSEADDR 与 SO_BROADCAST 的 ListenConfig
//
// 多个工具可以同时在同一台机器上监听发现端口。
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); serr != nil {
					return
				}
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
}
