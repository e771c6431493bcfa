package burst

// sendHandshake emits one burst per symbol, in signal order, so the
// receiver learns the live sizes without them ever being stated.
func (c *Channel) sendHandshake(m SizeMap) error {
	for _, sym := range c.conf.SignalOrder {
		size, ok := m.Size(sym)
		if !ok {
			return ErrInvalidSignalOrder
		}
		if err := c.sendBurst(size); err != nil {
			return err
		}
	}
	return nil
}

// receiveHandshake rebuilds the sender's size map from the position of each
// handshake burst. Sizes are trusted to be distinct: a count seen twice
// leaves the later symbol in charge and is only logged.
func (c *Channel) receiveHandshake() (SizeMap, error) {
	sizes := make([]int, len(c.conf.SignalOrder))
	seen := make(map[int]string, len(sizes))
	for i, sym := range c.conf.SignalOrder {
		count, err := c.awaitBurst()
		if err != nil {
			return SizeMap{}, err
		}
		if prev, ok := seen[count]; ok {
			log.Warningf("Handshake burst of %d packets seen for both %q and %q", count, prev, sym)
		}
		if count > c.conf.BurstMax {
			log.Warningf("Handshake burst of %d packets for %q exceeds BurstMax %d", count, sym, c.conf.BurstMax)
		}
		log.Debugf("handshake: %q is carried by %d packets", sym, count)
		seen[count] = sym
		sizes[i] = count
	}
	return newSizeMap(c.conf.SignalOrder, sizes), nil
}
