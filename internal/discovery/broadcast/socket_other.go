//go:build !unix

package broadcast

import "net"

// listenConfig 非 unix 平台使用默认套接字选项
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{}
}
