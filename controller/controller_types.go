package controller

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/covert-channels/burst/controller/channel"
	"github.com/covert-channels/burst/controller/channel/burst"
)

// The go json library only decodes the keys present in both the json
// string and the structure. This allows for selective unmarshalling i.e.
// unmarshal once to get the opcode, and then a second time to get the
// data, without always using the same struct for communication.
type command struct {
	OpCode string
}

type messageType struct {
	OpCode  string
	Message string
}

type configData struct {
	OpCode  string
	Default defaultConfig
	Channel channelConfig
}

type defaultConfig struct {
	Channel channelData
}

type channelConfig struct {
	Type string
	Data channelData
}

type channelData struct {
	Burst burst.ConfigClient
}

type Layers struct {
	channel channel.Channel

	// Chans for handling closing of the covert channel
	readClose     chan interface{}
	readCloseDone chan interface{}
}

type Controller struct {
	config  configData
	layers  *Layers
	metrics *burst.Metrics

	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]bool
	clientLock sync.Mutex
	waitGroup  sync.WaitGroup
	clientStop chan interface{}
	recvStop   chan interface{}
	sendStop   chan interface{}
	doneWsSend chan interface{}
	doneWsRecv chan interface{}
	wsSend     chan []byte
	wsRecv     chan []byte
}
