package burst

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"strings"
)

const (
	RoleSend    = "send"
	RoleReceive = "receive"
)

// fileParameters mirrors the option names of a config file. Durations are
// in seconds. Missing options keep their GetDefault values.
type fileParameters struct {
	IP                   *string          `json:"ip"`
	Port                 *uint16          `json:"port"`
	OriginIP             *string          `json:"originIp"`
	OriginPort           *uint16          `json:"originPort"`
	SignalOrder          []string         `json:"signalOrder"`
	BurstMax             *uint16          `json:"burstMax"`
	DelayBetweenBursts   *float64         `json:"delayBetweenBursts"`
	DelayWaitingForBurst *float64         `json:"delayWaitingForBurst"`
	SocketAwakeningDelay *float64         `json:"socketAwakeningDelay"`
	AwaitTimeout         *float64         `json:"awaitTimeout"`
	StoppingCharacter    *string          `json:"stoppingCharacter"`
	StopRepeat           *uint16          `json:"stopRepeat"`
	SharedSecret         *string          `json:"sharedSecret"`
	SendDumpData         *json.RawMessage `json:"sendDumpData"`
	HistorySize          *uint64          `json:"historySize"`
	Digest               *string          `json:"digest"`
	Transport            *string          `json:"transport"`
}

type fileSection struct {
	Parameters fileParameters `json:"parameters"`
}

type fileConfig struct {
	Send    *fileSection `json:"send"`
	Receive *fileSection `json:"receive"`
}

// LoadFileConfig reads the section of a JSON config file for role and
// overlays it on GetDefault. For the sender ip and port name the receiver
// to deliver to and the local port is ephemeral unless originPort is set.
// For the receiver they name the address to bind.
func LoadFileConfig(path, role string) (ConfigClient, error) {
	cc := GetDefault()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cc, err
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return cc, err
	}

	var section *fileSection
	switch role {
	case RoleSend:
		section = fc.Send
		cc.OriginPort.Value = 0
	case RoleReceive:
		section = fc.Receive
	default:
		return cc, errors.New("Invalid role " + role)
	}
	if section == nil {
		return cc, errors.New("No " + role + " section in " + path)
	}
	section.Parameters.apply(&cc, role)
	return cc, nil
}

func seconds(v float64) uint64 {
	if v <= 0 {
		return 0
	}
	return uint64(math.Round(v * 1000))
}

func (p fileParameters) apply(cc *ConfigClient, role string) {
	ip, port := &cc.FriendIP, &cc.FriendPort
	if role == RoleReceive {
		ip, port = &cc.OriginIP, &cc.OriginPort
	}
	if p.IP != nil {
		ip.Value = *p.IP
	}
	if p.Port != nil {
		port.Value = *p.Port
	}
	if p.OriginIP != nil {
		cc.OriginIP.Value = *p.OriginIP
	}
	if p.OriginPort != nil {
		cc.OriginPort.Value = *p.OriginPort
	}
	if p.SignalOrder != nil {
		cc.SignalOrder.Value = append([]string(nil), p.SignalOrder...)
	}
	if p.BurstMax != nil {
		cc.BurstMax.Value = *p.BurstMax
	}
	if p.DelayBetweenBursts != nil {
		cc.DelayBetweenBursts.Value = seconds(*p.DelayBetweenBursts)
	}
	if p.DelayWaitingForBurst != nil {
		cc.DelayWaitingForBurst.Value = seconds(*p.DelayWaitingForBurst)
	}
	if p.SocketAwakeningDelay != nil {
		cc.SocketAwakeningDelay.Value = seconds(*p.SocketAwakeningDelay)
	}
	if p.AwaitTimeout != nil {
		cc.AwaitTimeout.Value = seconds(*p.AwaitTimeout)
	}
	if p.StoppingCharacter != nil {
		cc.StoppingCharacter.Value = *p.StoppingCharacter
	}
	if p.StopRepeat != nil {
		cc.StopRepeat.Value = *p.StopRepeat
	}
	if p.SharedSecret != nil {
		cc.SharedSecret.Value = *p.SharedSecret
	}
	if p.SendDumpData != nil {
		// Either a JSON string ("0x41", "0b1") or a bare integer
		var s string
		if err := json.Unmarshal(*p.SendDumpData, &s); err != nil {
			s = strings.TrimSpace(string(*p.SendDumpData))
		}
		cc.SendDumpData.Value = s
	}
	if p.HistorySize != nil {
		cc.HistorySize.Value = *p.HistorySize
	}
	if p.Digest != nil {
		cc.Digest.Value = *p.Digest
	}
	if p.Transport != nil {
		cc.Transport.Value = *p.Transport
	}
}
