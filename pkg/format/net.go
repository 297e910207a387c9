// Package format renders addresses for logs and error messages.
package format

import (
	"fmt"
	"strings"
)

// IPv4 renders a host-order IPv4 address as a dotted quad.
func IPv4(addr uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

// HostPort joins host and port, bracketing hosts that contain a colon.
func HostPort(host string, port int) string {
	if strings.Contains(host, ":") {
		return fmt.Sprintf("[%s]:%d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}
