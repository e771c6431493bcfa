// Package msglog supplies messages to send and keeps a record of the
// messages sent and received.
package msglog

import (
	"math/rand"
	"os"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("msglog")

const (
	firstPrintable = ' '
	lastPrintable  = '~'
)

// Random returns a printable ASCII message of minLen to maxLen bytes that
// never contains exclude.
func Random(r *rand.Rand, minLen, maxLen int, exclude byte) []byte {
	if minLen < 0 {
		minLen = 0
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	msg := make([]byte, minLen+r.Intn(maxLen-minLen+1))
	for i := range msg {
		for {
			b := byte(firstPrintable + r.Intn(lastPrintable-firstPrintable+1))
			if b != exclude {
				msg[i] = b
				break
			}
		}
	}
	return msg
}

// Append writes msg as one line at the end of the file at path, creating it
// if needed.
func Append(path string, msg []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	line := append(append([]byte(nil), msg...), '\n')
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	log.Debugf("logged %d bytes to %s", len(msg), path)
	return f.Close()
}
