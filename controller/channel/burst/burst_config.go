package burst

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/covert-channels/burst/controller/channel/transport"
	"github.com/covert-channels/burst/controller/config"
)

type ConfigClient struct {
	FriendIP             config.IPV4Param
	OriginIP             config.IPV4Param
	FriendPort           config.U16Param
	OriginPort           config.U16Param
	SignalOrder          config.ListParam
	BurstMax             config.U16Param
	DelayBetweenBursts   config.U64Param
	DelayWaitingForBurst config.U64Param
	SocketAwakeningDelay config.U64Param
	AwaitTimeout         config.U64Param
	StoppingCharacter    config.StringParam
	StopRepeat           config.U16Param
	SharedSecret         config.StringParam
	SendDumpData         config.StringParam
	HistorySize          config.U64Param
	Digest               config.SelectParam
	Transport            config.SelectParam
}

func GetDefault() ConfigClient {
	return ConfigClient{
		FriendIP:             config.MakeIPV4("127.0.0.1", config.Display{Description: "Your friend's IP address.", Name: "Friend's IP", Group: "IP Addresses"}),
		OriginIP:             config.MakeIPV4("127.0.0.1", config.Display{Description: "Your IP address.", Name: "Your IP", Group: "IP Addresses"}),
		FriendPort:           config.MakeU16(8123, [2]uint16{0, 65535}, config.Display{Description: "Your friend's UDP receive port.", Name: "Friend's Port", Group: "Ports"}),
		OriginPort:           config.MakeU16(8124, [2]uint16{0, 65535}, config.Display{Description: "Your UDP receive port. Zero picks any free port.", Name: "Your Port", Group: "Ports"}),
		SignalOrder:          config.MakeList([]string{"0", "1"}, [2]uint64{2, 16}, config.Display{Description: "The shared order of the symbols. Every bit string of width 1, 2 or 4 exactly once.", Name: "Signal Order", Group: "Encoding"}),
		BurstMax:             config.MakeU16(10, [2]uint16{2, 1024}, config.Display{Description: "The largest burst size, in packets.", Name: "Burst Max", Group: "Encoding"}),
		DelayBetweenBursts:   config.MakeU64(100, [2]uint64{1, 60000}, config.Display{Description: "The silence the sender keeps after every burst, in milliseconds.", Name: "Delay Between Bursts", Group: "Timing"}),
		DelayWaitingForBurst: config.MakeU64(50, [2]uint64{1, 60000}, config.Display{Description: "The silence after which a burst is over, in milliseconds. Must be shorter than the delay between bursts.", Name: "Burst Silence", Group: "Timing"}),
		SocketAwakeningDelay: config.MakeU64(5, [2]uint64{0, 60000}, config.Display{Description: "The poll granularity of the receiving socket in milliseconds.", Name: "Socket Awakening", Group: "Timing"}),
		AwaitTimeout:         config.MakeU64(0, [2]uint64{0, 3600000}, config.Display{Description: "How long to wait for a burst to start in milliseconds. Zero for no timeout.", Name: "Await Timeout", Group: "Timing"}),
		StoppingCharacter:    config.MakeString(".", [2]uint64{1, 1}, config.Display{Description: "The character ending every message.", Name: "Stop Character", Group: "Encoding"}),
		StopRepeat:           config.MakeU16(1, [2]uint16{1, 16}, config.Display{Description: "How many stop characters end a message. Both ends must agree.", Name: "Stop Repeat", Group: "Encoding"}),
		SharedSecret:         config.MakeString("covert", [2]uint64{0, 256}, config.Display{Description: "The secret mixed into the initial burst sizes.", Name: "Shared Secret", Group: "Encoding"}),
		SendDumpData:         config.MakeString("0xFF", [2]uint64{1, 10}, config.Display{Description: "The filler byte of every packet, as 0b..., 0x... or 0-255.", Name: "Filler", Group: "Encoding"}),
		HistorySize:          config.MakeU64(8, [2]uint64{0, 65535}, config.Display{Description: "How many recent characters drive the keystream. Zero for the whole message.", Name: "History Size", Group: "Encoding"}),
		Digest:               config.MakeSelect(DigestSHA256, Digests, config.Display{Description: "The hash seeding the initial burst sizes.", Name: "Digest", Group: "Encoding"}),
		Transport:            config.MakeSelect(transport.KindUDP, transport.Kinds, config.Display{Description: "How packets are emitted. Raw needs CAP_NET_RAW.", Name: "Transport", Group: "Settings"}),
	}
}

// ParseDumpData reads a single filler byte written as a 0b binary or 0x
// hexadecimal string, or as a decimal integer between 0 and 255.
func ParseDumpData(s string) ([]byte, error) {
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0b"):
		v, err = strconv.ParseUint(s[2:], 2, 8)
	case strings.HasPrefix(s, "0x"):
		v, err = strconv.ParseUint(s[2:], 16, 8)
	default:
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return nil, ErrInvalidDumpData
	}
	return []byte{byte(v)}, nil
}

func ms(v uint64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func ToConfig(cc ConfigClient) (Config, error) {
	var c Config
	var err error

	if err = config.Validate(cc); err != nil {
		return c, err
	}
	if c.FriendIP, err = cc.FriendIP.GetValue(); err != nil {
		return c, errors.New("Invalid FriendIP value")
	}
	if c.OriginIP, err = cc.OriginIP.GetValue(); err != nil {
		return c, errors.New("Invalid OriginIP value")
	}
	c.FriendPort = cc.FriendPort.Value
	c.OriginPort = cc.OriginPort.Value

	c.SignalOrder = append([]string(nil), cc.SignalOrder.Value...)
	c.BurstMax = int(cc.BurstMax.Value)

	c.DelayBetweenBursts = ms(cc.DelayBetweenBursts.Value)
	c.DelayWaitingForBurst = ms(cc.DelayWaitingForBurst.Value)
	c.SocketAwakeningDelay = ms(cc.SocketAwakeningDelay.Value)
	c.AwaitTimeout = ms(cc.AwaitTimeout.Value)

	c.StoppingCharacter = cc.StoppingCharacter.Value[0]
	c.StopRepeat = int(cc.StopRepeat.Value)
	c.SharedSecret = cc.SharedSecret.Value
	if c.SendDumpData, err = ParseDumpData(cc.SendDumpData.Value); err != nil {
		return c, errors.New("SendDumpData : " + err.Error())
	}
	c.HistorySize = int(cc.HistorySize.Value)
	c.Digest = cc.Digest.Value
	c.Transport = cc.Transport.Value

	// Catch the cross-field errors here too, before anything is bound
	check := c
	if _, err = check.setDefaults(); err != nil {
		return c, err
	}
	return c, nil
}

func ToChannel(cc ConfigClient) (*Channel, error) {
	c, err := ToConfig(cc)
	if err != nil {
		return nil, err
	}
	return MakeChannel(c)
}
