package util

import (
	"fmt"
	"net"
	"strconv"
)

// maxPortAttempts 顺延查找端口的最大次数
const maxPortAttempts = 20

// PortAvailable 检测本机端口是否可监听
func PortAvailable(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// FindAvailablePort 从 startPort 起顺延查找可用端口
func FindAvailablePort(startPort int) (int, error) {
	for i := 0; i < maxPortAttempts; i++ {
		port := startPort + i
		if port > 65535 {
			break
		}
		if PortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in [%d, %d)", startPort, startPort+maxPortAttempts)
}
