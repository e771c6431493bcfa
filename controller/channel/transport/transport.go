// Package transport emits and receives the filler datagrams that make up
// packet bursts. Payload content carries no information.
package transport

import (
	"errors"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("transport")

const (
	// KindUDP lets the kernel frame each datagram.
	KindUDP = "udp"
	// KindRaw frames IPv4 and UDP headers in user space and injects them
	// through a raw socket. Requires CAP_NET_RAW.
	KindRaw = "raw"
)

// Kinds lists the transport names accepted by Dial.
var Kinds = []string{KindUDP, KindRaw}

// Writer emits one datagram per call.
type Writer interface {
	WritePacket(payload []byte) error
	Close() error
}

// Endpoint is an IPv4 address and port pair.
type Endpoint struct {
	IP   [4]byte
	Port uint16
}

// Dial opens a writer of the given kind sending from src to dst.
// The kernel transport ignores src and sends from an ephemeral port.
func Dial(kind string, src, dst Endpoint) (Writer, error) {
	switch kind {
	case KindUDP:
		return DialUDP(dst)
	case KindRaw:
		return DialRaw(src, dst)
	default:
		return nil, errors.New("Invalid transport " + kind)
	}
}
