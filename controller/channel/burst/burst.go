// Package burst implements a covert channel that carries a message in the
// number of UDP packets per burst rather than in any packet content.
//
// Every message starts with a handshake, one burst per symbol of the shared
// signal order, which tells the receiver the burst size standing for each
// symbol. The sender derives those sizes from the shared secret and its wall
// clock. After every byte both ends perturb the sizes with a keystream driven
// by the bytes exchanged so far, so sender and receiver must stay in lockstep.
// There is no checksum, acknowledgement or retransmission: a miscounted
// burst silently corrupts the rest of the message.
package burst

import (
	"bytes"
	"errors"
	"sync"
	"time"

	logging "github.com/op/go-logging"

	"github.com/covert-channels/burst/controller/channel/transport"
)

var log = logging.MustGetLogger("burst")

var (
	ErrBurstMaxTooSmall   = errors.New("BurstMax must be at least the number of symbols")
	ErrSizeMapExhausted   = errors.New("No distinct burst sizes found")
	ErrInvalidSignalOrder = errors.New("Signal order must list every bit string of width 1, 2 or 4 exactly once")
	ErrInvalidDigest      = errors.New("Invalid digest")
	ErrInvalidDumpData    = errors.New("Dump data must be one byte given as 0b..., 0x... or 0-255")
	ErrInvalidDelay       = errors.New("DelayWaitingForBurst must be positive and shorter than DelayBetweenBursts")
	ErrStopInMessage      = errors.New("Message contains the stopping character")
	ErrBufferFull         = errors.New("Buffer Full")
	ErrClosed             = errors.New("Channel closed")
)

// Config of a burst covert channel. Both peers must agree on SignalOrder,
// BurstMax, StoppingCharacter, StopRepeat, HistorySize and Digest.
type Config struct {
	// Where Send delivers bursts
	FriendIP   [4]byte
	FriendPort uint16
	// Where Receive listens. Port zero binds an ephemeral port.
	OriginIP   [4]byte
	OriginPort uint16

	SignalOrder []string
	BurstMax    int

	// Silence the sender keeps after every burst
	DelayBetweenBursts time.Duration
	// Silence after which the receiver considers a burst over
	DelayWaitingForBurst time.Duration
	// Poll granularity of the receiving socket
	SocketAwakeningDelay time.Duration
	// How long the receiver waits for a burst to start. Zero waits forever.
	AwaitTimeout time.Duration

	StoppingCharacter byte
	// Number of stop bytes ending a message. Zero means one. The receiver
	// consumes every repeat before returning.
	StopRepeat int

	SharedSecret string
	// Filler payload of every packet
	SendDumpData []byte
	// Bytes of history feeding the keystream. Zero uses the whole history.
	HistorySize int
	// Hash seeding the initial size map. Empty means sha256.
	Digest string
	// Packet emitter, one of transport.Kinds. Empty means udp.
	Transport string

	Metrics *Metrics
	// Clock seeds the initial size map. Defaults to time.Now.
	Clock func() time.Time
}

// A burst covert channel
type Channel struct {
	conf     Config
	width    int
	writer   transport.Writer
	detector *Detector

	// Closed once by Close, interrupts a sender sleeping between bursts
	cancel chan bool

	// A message occupies the link exclusively
	sendMutex  *sync.Mutex
	recvMutex  *sync.Mutex
	closeMutex *sync.Mutex
}

// setDefaults fills optional fields and checks everything that can be
// checked before any socket is opened.
func (conf *Config) setDefaults() (int, error) {
	if conf.StopRepeat == 0 {
		conf.StopRepeat = 1
	}
	if conf.Digest == "" {
		conf.Digest = DigestSHA256
	}
	if conf.Transport == "" {
		conf.Transport = transport.KindUDP
	}
	if conf.Clock == nil {
		conf.Clock = time.Now
	}

	width, err := symbolWidth(conf.SignalOrder)
	if err != nil {
		return 0, err
	}
	if conf.BurstMax < len(conf.SignalOrder) {
		return 0, ErrBurstMaxTooSmall
	}
	if _, err := newDigest(conf.Digest); err != nil {
		return 0, err
	}
	if len(conf.SendDumpData) == 0 {
		return 0, ErrInvalidDumpData
	}
	if conf.DelayWaitingForBurst <= 0 || conf.DelayWaitingForBurst >= conf.DelayBetweenBursts {
		return 0, ErrInvalidDelay
	}
	if conf.StopRepeat < 0 || conf.HistorySize < 0 {
		return 0, errors.New("StopRepeat and HistorySize must not be negative")
	}
	return width, nil
}

// MakeChannel validates conf, binds the receive socket and opens the packet
// emitter. Configuration errors are reported before any socket is opened.
func MakeChannel(conf Config) (*Channel, error) {
	width, err := conf.setDefaults()
	if err != nil {
		return nil, err
	}
	conf.SignalOrder = append([]string(nil), conf.SignalOrder...)
	conf.SendDumpData = append([]byte(nil), conf.SendDumpData...)

	origin := transport.Endpoint{IP: conf.OriginIP, Port: conf.OriginPort}
	friend := transport.Endpoint{IP: conf.FriendIP, Port: conf.FriendPort}

	conn, err := transport.ListenUDP(origin)
	if err != nil {
		return nil, err
	}
	w, err := transport.Dial(conf.Transport, origin, friend)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Channel{
		conf:       conf,
		width:      width,
		writer:     w,
		detector:   NewDetector(conn, conf.DelayWaitingForBurst, conf.SocketAwakeningDelay, conf.AwaitTimeout),
		cancel:     make(chan bool),
		sendMutex:  &sync.Mutex{},
		recvMutex:  &sync.Mutex{},
		closeMutex: &sync.Mutex{},
	}, nil
}

func (c *Channel) Close() error {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	select {
	// Have we already closed
	case <-c.cancel:
		return nil
	default:
		close(c.cancel)
	}
	err := c.detector.Close()
	if werr := c.writer.Close(); err == nil {
		err = werr
	}
	return err
}

// Send transmits data as one message: handshake, one burst per symbol,
// then the stop bytes. It returns the number of bytes of data sent.
func (c *Channel) Send(data []byte) (uint64, error) {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	select {
	case <-c.cancel:
		return 0, ErrClosed
	default:
	}
	if bytes.IndexByte(data, c.conf.StoppingCharacter) >= 0 {
		return 0, ErrStopInMessage
	}

	m, err := GenerateSizeMap(c.conf.SignalOrder, c.conf.SharedSecret, c.conf.Clock().Unix(), c.conf.BurstMax, c.conf.Digest)
	if err != nil {
		return 0, err
	}
	log.Infof("Sending handshake for size map %s", m)
	if err := c.sendHandshake(m); err != nil {
		return 0, err
	}

	s := newSession(&c.conf, c.width, m)
	var n uint64
	for _, b := range data {
		if err := c.sendByte(s, b); err != nil {
			return n, err
		}
		n++
	}
	for i := 0; i < c.conf.StopRepeat; i++ {
		if err := c.sendByte(s, c.conf.StoppingCharacter); err != nil {
			return n, err
		}
	}
	log.Infof("Sent %d bytes", n)
	return n, nil
}

func (c *Channel) sendByte(s *session, b byte) error {
	sizes, err := s.encode(b)
	if err != nil {
		return err
	}
	for _, size := range sizes {
		if err := c.sendBurst(size); err != nil {
			return err
		}
	}
	return nil
}

// sendBurst writes n packets back to back, then stays silent for
// DelayBetweenBursts so the receiver can see the burst end.
func (c *Channel) sendBurst(n int) error {
	for i := 0; i < n; i++ {
		if err := c.writer.WritePacket(c.conf.SendDumpData); err != nil {
			return err
		}
	}
	c.conf.Metrics.burstSent(n)
	log.Debugf("sent burst of %d", n)
	select {
	case <-time.After(c.conf.DelayBetweenBursts):
		return nil
	case <-c.cancel:
		return ErrClosed
	}
}

// Receive blocks until a whole message has arrived and copies it into data.
// A message longer than data is still read up to its stop byte, so the
// channel stays in step with the sender, and ErrBufferFull is returned.
func (c *Channel) Receive(data []byte) (uint64, error) {
	msg, err := c.receive()
	n := uint64(copy(data, msg))
	if err == nil && len(msg) > len(data) {
		err = ErrBufferFull
	}
	return n, err
}

func (c *Channel) receive() ([]byte, error) {
	c.recvMutex.Lock()
	defer c.recvMutex.Unlock()

	m, err := c.receiveHandshake()
	if err != nil {
		return nil, err
	}
	log.Infof("Handshake complete, size map %s", m)

	s := newSession(&c.conf, c.width, m)
	var msg []byte
	for {
		b, err := c.readByte(s)
		if err != nil {
			return msg, err
		}
		if b == c.conf.StoppingCharacter {
			break
		}
		msg = append(msg, b)
	}
	log.Infof("Stop byte received after %d bytes", len(msg))

	// The sender repeats the stop byte. The repeats are consumed here so the
	// next message starts with its own handshake.
	for i := 1; i < c.conf.StopRepeat; i++ {
		b, err := c.readByte(s)
		if err != nil {
			return msg, err
		}
		if b != c.conf.StoppingCharacter {
			log.Warningf("Expected stop byte %d of %d, decoded %q", i+1, c.conf.StopRepeat, b)
		}
	}
	return msg, nil
}

// readByte decodes bursts until one byte is complete.
func (c *Channel) readByte(s *session) (byte, error) {
	for {
		count, err := c.awaitBurst()
		if err != nil {
			if p := s.buf.pending(); p > 0 {
				log.Warningf("Receive aborted with %d bits of a byte pending", p)
			}
			return 0, err
		}
		b, complete, err := s.decode(count)
		if err != nil {
			return 0, err
		}
		if complete {
			return b, nil
		}
	}
}

// awaitBurst returns the next non-empty burst.
func (c *Channel) awaitBurst() (int, error) {
	for {
		n, err := c.detector.ReceiveBurst()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			c.conf.Metrics.burstReceived(n)
			return n, nil
		}
	}
}

// Send opens a channel for conf, transmits msg and closes the channel again.
func Send(conf Config, msg []byte) error {
	c, err := MakeChannel(conf)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Send(msg)
	return err
}

// Receive opens a channel for conf, waits for one message and closes the
// channel again.
func Receive(conf Config) ([]byte, error) {
	c, err := MakeChannel(conf)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.receive()
}
