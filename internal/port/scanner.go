package port

import (
	"fmt"
	"net"
)

// Scanner checks whether ports are free on the host by binding them.
//
// Binding asks the OS directly, which avoids parsing /proc/net or shelling
// out to lsof/ss.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable reports whether a TCP listener can be bound to port on
// all interfaces. The listener is closed before returning.
//
// Only TCP is checked: $PORT is the port an instance serves HTTP or other
// stream traffic on.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}
