package transport

import (
	"net"
)

// UDPWriter sends kernel-framed datagrams from an unconnected socket.
// An unconnected socket never reports ICMP port unreachable, so a sender
// outliving its receiver keeps writing without errors.
type UDPWriter struct {
	conn *net.UDPConn
	dst  *net.UDPAddr
}

func DialUDP(dst Endpoint) (*UDPWriter, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, err
	}
	return &UDPWriter{
		conn: conn,
		dst:  &net.UDPAddr{IP: net.IPv4(dst.IP[0], dst.IP[1], dst.IP[2], dst.IP[3]), Port: int(dst.Port)},
	}, nil
}

func (w *UDPWriter) WritePacket(payload []byte) error {
	_, err := w.conn.WriteToUDP(payload, w.dst)
	return err
}

func (w *UDPWriter) Close() error {
	return w.conn.Close()
}

// ListenUDP binds the receive socket of a channel.
func ListenUDP(local Endpoint) (*net.UDPConn, error) {
	addr := &net.UDPAddr{IP: net.IPv4(local.IP[0], local.IP[1], local.IP[2], local.IP[3]), Port: int(local.Port)}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, err
	}
	log.Debugf("listening on %s", conn.LocalAddr())
	return conn, nil
}
