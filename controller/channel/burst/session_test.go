package burst

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func testConfig(order []string, burstMax, historySize int) *Config {
	return &Config{
		SignalOrder:       order,
		BurstMax:          burstMax,
		HistorySize:       historySize,
		Digest:            DigestSHA256,
		StoppingCharacter: '.',
	}
}

type fataler interface {
	Fatalf(format string, args ...interface{})
}

// lockstep encodes msg followed by the stop byte on a sender session and
// feeds every burst to a receiver session, checking after each byte that
// both ends hold the same size map. It returns the decoded message.
func lockstep(t fataler, conf *Config, msg []byte) []byte {
	width, err := symbolWidth(conf.SignalOrder)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	m, err := GenerateSizeMap(conf.SignalOrder, "k1", 1700000000, conf.BurstMax, conf.Digest)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	sender := newSession(conf, width, m)
	receiver := newSession(conf, width, m)

	var out []byte
	for _, b := range append(append([]byte(nil), msg...), conf.StoppingCharacter) {
		sizes, err := sender.encode(b)
		if err != nil {
			t.Fatalf("encode err = '%s'; want nil", err.Error())
		}
		for i, size := range sizes {
			got, complete, err := receiver.decode(size)
			if err != nil {
				t.Fatalf("decode err = '%s'; want nil", err.Error())
			}
			if complete != (i == len(sizes)-1) {
				t.Fatalf("byte %q complete = %t after %d of %d symbols", b, complete, i+1, len(sizes))
			}
			if complete && got != b {
				t.Fatalf("decoded %q; want %q", got, b)
			}
		}
		if !sender.sizes.Equal(receiver.sizes) {
			t.Fatalf("size maps diverged after %q: sender %s, receiver %s", b, sender.sizes, receiver.sizes)
		}
		if b == conf.StoppingCharacter {
			break
		}
		out = append(out, b)
	}
	return out
}

func TestSessionRoundTrip(t *testing.T) {
	conf := testConfig(binaryOrder, 10, 0)
	if out := lockstep(t, conf, []byte("A\x00")); !bytes.Equal(out, []byte("A\x00")) {
		t.Errorf("got %q; want \"A\\x00\"", out)
	}
}

func TestSessionRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.SampledFrom([]int{1, 2, 4}).Draw(t, "width")
		order := orderOfWidth(width)
		conf := testConfig(order, rapid.IntRange(2*len(order)+8, 64).Draw(t, "burstMax"), rapid.IntRange(0, 10).Draw(t, "historySize"))
		msg := rapid.SliceOfN(rapid.Byte().Filter(func(b byte) bool { return b != '.' }), 0, 24).Draw(t, "msg")

		if out := lockstep(t, conf, msg); !bytes.Equal(out, msg) {
			t.Fatalf("got %q; want %q", out, msg)
		}
	})
}

// The receiver must stop consuming exactly at the last symbol of the stop byte
func TestSessionStopsAtStopByte(t *testing.T) {
	conf := testConfig(binaryOrder, 10, 4)
	m, err := GenerateSizeMap(binaryOrder, "k1", 1700000000, 10, DigestSHA256)
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	sender := newSession(conf, 1, m)
	receiver := newSession(conf, 1, m)

	var stream []int
	for _, b := range []byte("hi.xyz") {
		sizes, err := sender.encode(b)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		stream = append(stream, sizes...)
	}

	var msg []byte
	consumed := 0
	for _, count := range stream {
		consumed++
		b, complete, err := receiver.decode(count)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		if !complete {
			continue
		}
		if b == '.' {
			break
		}
		msg = append(msg, b)
	}
	if string(msg) != "hi" {
		t.Errorf("got %q; want \"hi\"", msg)
	}
	if consumed != 3*bitsPerByte {
		t.Errorf("consumed %d bursts; want %d", consumed, 3*bitsPerByte)
	}
}

func TestSessionSkipsUnknownCount(t *testing.T) {
	conf := testConfig(binaryOrder, 10, 0)
	m := newSizeMap(binaryOrder, []int{4, 7})
	sender := newSession(conf, 1, m)
	receiver := newSession(conf, 1, m)

	sizes, err := sender.encode('A')
	if err != nil {
		t.Fatalf("err = '%s'; want nil", err.Error())
	}
	// Noise bursts before and in the middle of the byte
	stream := append([]int{5}, sizes[:3]...)
	stream = append(stream, 11)
	stream = append(stream, sizes[3:]...)

	var got byte
	var done bool
	for _, count := range stream {
		b, complete, err := receiver.decode(count)
		if err != nil {
			t.Fatalf("err = '%s'; want nil", err.Error())
		}
		if complete {
			got, done = b, true
		}
	}
	if !done || got != 'A' {
		t.Errorf("got %q, %t; want 'A', true", got, done)
	}
	if !sender.sizes.Equal(receiver.sizes) {
		t.Errorf("size maps diverged: sender %s, receiver %s", sender.sizes, receiver.sizes)
	}
}

func TestSessionAdvancesHistory(t *testing.T) {
	conf := testConfig(binaryOrder, 10, 0)
	m := newSizeMap(binaryOrder, []int{4, 7})
	s := newSession(conf, 1, m)
	// Nil metrics must be safe
	if _, err := s.encode('A'); err != nil {
		t.Errorf("err = '%s'; want nil", err.Error())
	}
	if len(s.history) != 1 || s.history[0] != 'A' {
		t.Errorf("history = %q; want \"A\"", s.history)
	}
}
