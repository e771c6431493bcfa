package transport

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"
)

const (
	ipv4HeaderLen = 20
	defaultTTL    = 64
)

// RawWriter frames every datagram itself and hands the complete IPv4
// packet to the network stack.
type RawWriter struct {
	rawConn *ipv4.RawConn
	src     Endpoint
	dst     Endpoint

	mutex *sync.Mutex
	id    uint16
}

func DialRaw(src, dst Endpoint) (*RawWriter, error) {
	// ip network with udp protocol
	conn, err := net.ListenPacket("ip4:17", "0.0.0.0")
	if err != nil {
		return nil, err
	}

	rawConn, err := ipv4.NewRawConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &RawWriter{
		rawConn: rawConn,
		src:     src,
		dst:     dst,
		mutex:   &sync.Mutex{},
		id:      uint16(r.Intn(0xFFFF)),
	}, nil
}

func (w *RawWriter) WritePacket(payload []byte) error {
	h, b, err := FrameUDP(w.src, w.dst, payload)
	if err != nil {
		return err
	}
	h.ID = w.nextID()
	cm := createCM(w.src.IP, w.dst.IP)
	return w.rawConn.WriteTo(&h, b, &cm)
}

func (w *RawWriter) Close() error {
	return w.rawConn.Close()
}

// The raw socket overrides an IP ID of zero, so zero is skipped
func (w *RawWriter) nextID() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.id++
	if w.id == 0 {
		w.id++
	}
	return int(w.id)
}

// FrameUDP builds the IPv4 header and the serialized UDP segment
// (header plus payload) for one datagram. Lengths and the UDP checksum
// are computed over the pseudo header.
func FrameUDP(src, dst Endpoint, payload []byte) (ipv4.Header, []byte, error) {
	iph := layers.IPv4{
		SrcIP:    net.IP(src.IP[:]),
		DstIP:    net.IP(dst.IP[:]),
		Protocol: layers.IPProtocolUDP,
	}
	udph := layers.UDP{
		SrcPort: layers.UDPPort(src.Port),
		DstPort: layers.UDPPort(dst.Port),
	}
	if err := udph.SetNetworkLayerForChecksum(&iph); err != nil {
		return ipv4.Header{}, nil, err
	}

	sb := gopacket.NewSerializeBuffer()
	op := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(sb, op, &udph, gopacket.Payload(payload)); err != nil {
		return ipv4.Header{}, nil, err
	}
	b := sb.Bytes()

	return createIPHeader(src.IP, dst.IP, len(b)), b, nil
}

func createIPHeader(sip, dip [4]byte, segmentLen int) ipv4.Header {
	return ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4HeaderLen,
		TotalLen: ipv4HeaderLen + segmentLen,
		TTL:      defaultTTL,
		Protocol: int(layers.IPProtocolUDP),
		Src:      net.IP(sip[:]),
		Dst:      net.IP(dip[:]),
	}
}

func createCM(sip, dip [4]byte) ipv4.ControlMessage {
	return ipv4.ControlMessage{
		TTL: defaultTTL,
		Src: net.IP(sip[:]),
		Dst: net.IP(dip[:]),
	}
}
