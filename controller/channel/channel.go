package channel

// Channel is a covert channel able to carry whole messages between two peers.
// Receive blocks until a complete message has arrived and returns the number
// of bytes written into data.
type Channel interface {
	Receive(data []byte) (uint64, error)
	Send(data []byte) (uint64, error)
	Close() error
}
