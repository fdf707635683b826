package ws

import (
	"fmt"
	"net"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// listen binds every interface on port. It prefers a dual-stack socket so
// both IPv4 and IPv6 clients on the LAN can reach it, and falls back to
// IPv4 only on hosts without IPv6.
func listen(port int) (net.Listener, error) {
	p := strconv.Itoa(port)

	ln, err := net.Listen("tcp", net.JoinHostPort("::", p))
	if err == nil {
		return ln, nil
	}
	log.Debugf("dual-stack bind on port %d failed, trying IPv4: %v", port, err)

	ln, err4 := net.Listen("tcp4", net.JoinHostPort("0.0.0.0", p))
	if err4 != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err4)
	}
	return ln, nil
}
