package burst

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts channel activity. A nil *Metrics records nothing.
type Metrics struct {
	burstsSent     prometheus.Counter
	packetsSent    prometheus.Counter
	burstsReceived prometheus.Counter
	burstSize      prometheus.Histogram
	unknownBursts  prometheus.Counter
	bytesEncoded   prometheus.Counter
	bytesDecoded   prometheus.Counter
	redraws        prometheus.Counter
}

// NewMetrics registers the channel collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: "covert", Subsystem: "burst", Name: name, Help: help}
	}
	return &Metrics{
		burstsSent:     factory.NewCounter(opts("bursts_sent_total", "Bursts emitted, handshake included")),
		packetsSent:    factory.NewCounter(opts("packets_sent_total", "Filler packets emitted")),
		burstsReceived: factory.NewCounter(opts("bursts_received_total", "Non-empty bursts observed")),
		burstSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covert",
			Subsystem: "burst",
			Name:      "burst_size",
			Help:      "Packets per observed burst",
			Buckets:   prometheus.LinearBuckets(1, 1, 16),
		}),
		unknownBursts: factory.NewCounter(opts("unknown_bursts_total", "Observed bursts matching no symbol of the live size map")),
		bytesEncoded:  factory.NewCounter(opts("bytes_encoded_total", "Bytes encoded into bursts, stop bytes included")),
		bytesDecoded:  factory.NewCounter(opts("bytes_decoded_total", "Bytes decoded from bursts, stop bytes included")),
		redraws:       factory.NewCounter(opts("keystream_redraws_total", "Size maps redrawn after an evolution collision")),
	}
}

func (m *Metrics) burstSent(n int) {
	if m == nil {
		return
	}
	m.burstsSent.Inc()
	m.packetsSent.Add(float64(n))
}

func (m *Metrics) burstReceived(n int) {
	if m == nil {
		return
	}
	m.burstsReceived.Inc()
	m.burstSize.Observe(float64(n))
}

func (m *Metrics) unknownBurst() {
	if m != nil {
		m.unknownBursts.Inc()
	}
}

func (m *Metrics) byteEncoded() {
	if m != nil {
		m.bytesEncoded.Inc()
	}
}

func (m *Metrics) byteDecoded() {
	if m != nil {
		m.bytesDecoded.Inc()
	}
}

func (m *Metrics) redraw() {
	if m != nil {
		m.redraws.Inc()
	}
}
