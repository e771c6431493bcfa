package burst

import (
	"errors"
	"net"
	"sync"
	"time"
)

// A raw socket holds roughly 300 packets before dropping them, so the
// collector can queue a few bursts worth of arrivals ahead of the caller.
const maxStoreArrival = 512

// Detector times burst boundaries on a socket without knowing the burst
// length in advance. A collector goroutine owns the socket and timestamps
// every arrival; ReceiveBurst plays the timer and closes a burst once no
// packet has arrived for the silence threshold.
type Detector struct {
	conn net.PacketConn

	// Silence that ends a burst (DelayWaitingForBurst)
	silence time.Duration
	// Read deadline of the collector, bounding how long it takes to notice Close
	awaken time.Duration
	// How long ReceiveBurst waits for a first packet. Zero waits forever.
	await time.Duration

	arrivals chan time.Time
	// First arrival of the next burst, seen while closing the previous one
	pending *time.Time

	cancel     chan bool
	done       chan bool
	closeMutex *sync.Mutex
}

// NewDetector takes ownership of conn and starts collecting arrivals.
func NewDetector(conn net.PacketConn, silence, awaken, await time.Duration) *Detector {
	d := &Detector{
		conn:       conn,
		silence:    silence,
		awaken:     awaken,
		await:      await,
		arrivals:   make(chan time.Time, maxStoreArrival),
		cancel:     make(chan bool),
		done:       make(chan bool),
		closeMutex: &sync.Mutex{},
	}
	go d.readLoop()
	return d
}

func (d *Detector) readLoop() {
	defer close(d.done)
	var buf [2048]byte
	for {
		if d.awaken > 0 {
			d.conn.SetReadDeadline(time.Now().Add(d.awaken))
		}
		_, _, err := d.conn.ReadFrom(buf[:])
		at := time.Now()

		select {
		case <-d.cancel:
			return
		default:
		}

		if err != nil {
			// A timeout is only the collector waking up to look for Close
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debugf("read error: %s", err.Error())
			time.Sleep(d.awaken + time.Millisecond)
			continue
		}

		select {
		case d.arrivals <- at:
		case <-d.cancel:
			return
		}
	}
}

// ReceiveBurst blocks until one burst has ended and returns its packet count.
// A count of zero means no burst started within the await timeout.
// Bursts are returned strictly in arrival order.
func (d *Detector) ReceiveBurst() (int, error) {
	var last time.Time
	if d.pending != nil {
		last = *d.pending
		d.pending = nil
	} else {
		var awaitC <-chan time.Time
		if d.await > 0 {
			awaitC = time.After(d.await)
		}
		select {
		case last = <-d.arrivals:
		case <-awaitC:
			return 0, nil
		case <-d.cancel:
			return 0, ErrClosed
		}
	}

	count := 1
	for {
		wait := time.Until(last.Add(d.silence))
		if wait <= 0 {
			// The window is over, but arrivals the collector queued before
			// we looked still belong to this burst.
			select {
			case at := <-d.arrivals:
				if !d.extend(at, &last) {
					return count, nil
				}
				count++
				continue
			default:
				return count, nil
			}
		}
		select {
		case at := <-d.arrivals:
			if !d.extend(at, &last) {
				return count, nil
			}
			count++
		case <-time.After(wait):
		case <-d.cancel:
			return count, ErrClosed
		}
	}
}

// extend reports whether an arrival belongs to the burst ending at last.
// An arrival after a full silence opens the next burst and is kept for the
// next call.
func (d *Detector) extend(at time.Time, last *time.Time) bool {
	if at.Sub(*last) >= d.silence {
		d.pending = &at
		return false
	}
	*last = at
	return true
}

// Close stops the collector and releases the socket.
func (d *Detector) Close() error {
	d.closeMutex.Lock()
	defer d.closeMutex.Unlock()
	select {
	// Have we already closed
	case <-d.cancel:
		return nil
	default:
		close(d.cancel)
	}
	err := d.conn.Close()
	<-d.done
	return err
}
