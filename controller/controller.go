package controller

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	logging "github.com/op/go-logging"

	"github.com/covert-channels/burst/controller/channel/burst"
	"github.com/covert-channels/burst/controller/config"
)

var log = logging.MustGetLogger("controller")

// Largest message the read loop can deliver to the client
const maxReadSize = 1024

// Constructor for the controller. Channels opened through it record into
// metrics, which may be nil.
func CreateController(metrics *burst.Metrics) (*Controller, error) {
	var ctr *Controller = &Controller{
		config:     DefaultConfig(),
		metrics:    metrics,
		upgrader:   newUpgrader(),
		clients:    make(map[*websocket.Conn]bool),
		clientStop: make(chan interface{}),
		recvStop:   make(chan interface{}),
		sendStop:   make(chan interface{}),
		doneWsSend: make(chan interface{}),
		doneWsRecv: make(chan interface{}),
		wsSend:     make(chan []byte),
		wsRecv:     make(chan []byte),
	}
	// Validate the default values
	if err := config.ValidateConfigSet(ctr.config.Default.Channel); err != nil {
		return nil, err
	}
	// Validate the active channel config
	if err := config.ValidateConfigSet(ctr.config.Channel.Data); err != nil {
		return nil, err
	}
	go ctr.webReceiveLoop()
	go ctr.webSendLoop()
	return ctr, nil
}

// A default config for the system and all Covert Channels
func DefaultConfig() configData {
	return configData{
		OpCode: "config",
		Default: defaultConfig{
			Channel: defaultChannel(),
		},
		Channel: channelConfig{
			Type: "Burst",
			Data: defaultChannel(),
		},
	}
}

func defaultChannel() channelData {
	return channelData{
		Burst: burst.GetDefault(),
	}
}

// Callback when receiving a message from the client
func (ctr *Controller) handleMessage(data []byte) []byte {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return toMessage("error", "Unable to read command: "+err.Error())
	}
	log.Debugf("command %s", cmd.OpCode)

	// Determine the operation to perform
	switch cmd.OpCode {
	case "open":
		// Close a channel if it is already open
		if err := ctr.handleClose(); err != nil {
			return toMessage("error", "Unable to close channel: "+err.Error())
		} else if err := ctr.handleOpen(data); err != nil {
			return toMessage("error", "Unable to open channel: "+err.Error())
		} else {
			go ctr.readLoop(ctr.layers)
			return toMessage("open", "Open success")
		}
	case "close":
		if err := ctr.handleClose(); err != nil {
			return toMessage("error", "Unable to close channel: "+err.Error())
		} else {
			return toMessage("close", "Close success")
		}
	case "write":
		if err := ctr.handleWrite(data); err != nil {
			return toMessage("error", "Unable to write to channel: "+err.Error())
		} else {
			return toMessage("write", "Message write success")
		}
	case "config":
		if data, err := ctr.handleConfig(); err != nil {
			return toMessage("error", "Could not encode config: "+err.Error())
		} else {
			return data
		}
	default:
		return toMessage("error", "Unknown operation code")
	}
}

// A helper function for preparing responses to the client
// opcode is the type of message, and is one of the valid opCodes from the client or "error"
// data is the message
func toMessage(opcode string, data string) []byte {
	var mt messageType
	mt.OpCode = opcode
	mt.Message = data
	if data, err := json.Marshal(mt); err != nil {
		return []byte("{\"OpCode\" : \"error\", \"Message\" : \"Marshal Error\" }")
	} else {
		return data
	}
}

// Handle the config command
func (ctr *Controller) handleConfig() ([]byte, error) {
	if data, err := json.Marshal(ctr.config); err != nil {
		return nil, err
	} else {
		return data, nil
	}
}

// Handle the write command. Blocks until the whole message has been sent.
func (ctr *Controller) handleWrite(b []byte) error {
	var mt messageType
	if err := json.Unmarshal(b, &mt); err != nil {
		return err
	}
	if ctr.layers == nil {
		return errors.New("Channel closed")
	}

	data := []byte(mt.Message)
	if n, err := ctr.layers.channel.Send(data); err != nil {
		return errors.New("Write fail: Wrote " + strconv.FormatUint(n, 10) + " bytes out of " + strconv.FormatUint(uint64(len(data)), 10) + ": " + err.Error())
	}
	return nil
}

// Handle a read operation
func (ctr *Controller) handleRead(l *Layers) ([]byte, error) {
	var buffer [maxReadSize]byte

	n, err := l.channel.Receive(buffer[:])
	if err != nil {
		return nil, errors.New("Read fail: Read " + strconv.FormatUint(n, 10) + " bytes out of " + strconv.FormatUint(uint64(len(buffer)), 10) + " available bytes: " + err.Error())
	}
	return buffer[:n], nil
}

// Loop for repeatedly reading from the open Covert Channel
func (ctr *Controller) readLoop(l *Layers) {
	defer close(l.readCloseDone)

	for {
		data, err := ctr.handleRead(l)
		select {
		case <-l.readClose:
			return
		default:
		}

		msg := toMessage("read", string(data))
		if err != nil {
			log.Warning(err.Error())
			msg = toMessage("error", err.Error())
		}
		select {
		case ctr.wsSend <- msg:
		case <-l.readClose:
			return
		}

		if err != nil {
			// If there has been a read error wait
			// to avoid a constant stream of data
			// to the UI
			select {
			case <-time.After(time.Second):
			case <-l.readClose:
				return
			}
		}
	}
}

// Handle the close operation
func (ctr *Controller) handleClose() error {
	var err error
	if ctr.layers != nil {
		// The read loop must see readClose before its Receive fails
		close(ctr.layers.readClose)
		err = ctr.layers.channel.Close()
		// We must wait to ensure that the read loop is complete
		<-ctr.layers.readCloseDone
		ctr.layers = nil
	}
	return err
}

// Shutdown the controller
func (ctr *Controller) Shutdown() error {
	// Stop taking commands before the channel goes away
	err := ctr.webShutdown()
	if cerr := ctr.handleClose(); err == nil {
		err = cerr
	}
	return err
}
