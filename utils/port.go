package utils

import (
	"net"
)

// IsPortAvailable reports whether a tcp4 listener can be opened on host:port.
func IsPortAvailable(host string, port int) bool {
	listener, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.ParseIP(host), Port: port})
	if err != nil {
		Verbose("port %d on %s is busy: %v", port, host, err)
		return false
	}

	defer listener.Close()
	return true
}
