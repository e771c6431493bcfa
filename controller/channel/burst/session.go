package burst

// session is the per-message state shared by the codec and the keystream:
// the live size map, the bytes exchanged so far and the partially decoded
// byte. Sender and receiver each own one, created once the handshake is done
// and dropped when the stop byte has been exchanged.
type session struct {
	conf    *Config
	width   int
	sizes   SizeMap
	history []byte
	buf     symbolBuffer
}

func newSession(conf *Config, width int, m SizeMap) *session {
	return &session{conf: conf, width: width, sizes: m}
}

// encode returns the burst sizes carrying b, then advances the keystream.
func (s *session) encode(b byte) ([]int, error) {
	syms := symbolsForByte(b, s.width)
	out := make([]int, len(syms))
	for i, sym := range syms {
		size, ok := s.sizes.Size(sym)
		if !ok {
			return nil, ErrInvalidSignalOrder
		}
		out[i] = size
	}
	s.conf.Metrics.byteEncoded()
	return out, s.advance(b)
}

// decode consumes one observed burst. complete is set when the burst closed
// a byte, in which case the keystream has already advanced past it.
// Counts the live map does not know are skipped.
func (s *session) decode(count int) (b byte, complete bool, err error) {
	sym, ok := s.sizes.Symbol(count)
	if !ok {
		log.Warningf("Unexpected burst count %d for size map %s, ignored", count, s.sizes)
		s.conf.Metrics.unknownBurst()
		return 0, false, nil
	}
	log.Debugf("burst of %d decoded as %q", count, sym)
	if b, complete, err = s.buf.push(sym); !complete || err != nil {
		return b, complete, err
	}
	s.conf.Metrics.byteDecoded()
	return b, true, s.advance(b)
}

func (s *session) advance(b byte) error {
	s.history = append(s.history, b)
	next, redrawn, err := Evolve(s.sizes, s.history, s.conf.HistorySize, s.conf.BurstMax, s.conf.Digest)
	if err != nil {
		return err
	}
	if redrawn {
		log.Warningf("Size map %s collided after %d bytes, redrawn from history", s.sizes, len(s.history))
		s.conf.Metrics.redraw()
	}
	log.Debugf("size map evolved to %s", next)
	s.sizes = next
	return nil
}
