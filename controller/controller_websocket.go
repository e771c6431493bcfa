package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// How long Shutdown waits for each of the web loops
const loopStopTimeout = 5 * time.Second

// Clients are accepted from any origin, the controller is meant for a local UI
func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
}

// addClient registers an upgraded websocket. It fails once the controller is
// shutting down, so the wait group is never grown after Shutdown waits on it.
func (ctr *Controller) addClient(ws *websocket.Conn) bool {
	ctr.clientLock.Lock()
	defer ctr.clientLock.Unlock()
	select {
	case <-ctr.clientStop:
		return false
	default:
	}
	ctr.clients[ws] = true
	ctr.waitGroup.Add(1)
	return true
}

func (ctr *Controller) removeClient(ws *websocket.Conn) {
	ctr.clientLock.Lock()
	delete(ctr.clients, ws)
	ctr.clientLock.Unlock()
	ws.Close()
	ctr.waitGroup.Done()
}

// serveClient forwards every command of one client to the receive loop
// until the client goes away or the controller shuts down.
func (ctr *Controller) serveClient(ws *websocket.Conn) {
	defer ctr.removeClient(ws)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Info("Websocket read error: " + err.Error())
			return
		}
		select {
		case ctr.wsRecv <- data:
		case <-ctr.clientStop:
			return
		}
	}
}

// A loop for processing incoming commands from the clients
func (ctr *Controller) webReceiveLoop() {
	defer close(ctr.doneWsRecv)

	for {
		select {
		case <-ctr.recvStop:
			return
		case data := <-ctr.wsRecv:
			select {
			case ctr.wsSend <- ctr.handleMessage(data):
			case <-ctr.sendStop:
				return
			}
		}
	}
}

// A loop for broadcasting outgoing messages along all websockets
func (ctr *Controller) webSendLoop() {
	defer close(ctr.doneWsSend)

	for {
		select {
		case <-ctr.sendStop:
			return
		case data := <-ctr.wsSend:
			ctr.broadcast(data)
		}
	}
}

func (ctr *Controller) broadcast(data []byte) {
	ctr.clientLock.Lock()
	defer ctr.clientLock.Unlock()
	for ws := range ctr.clients {
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warning("Websocket write error: " + err.Error())
		}
	}
}

// Shutdown the websocket and all send and receive loops
func (ctr *Controller) webShutdown() error {
	ctr.clientLock.Lock()
	close(ctr.clientStop)
	for ws := range ctr.clients {
		ws.Close()
	}
	ctr.clientLock.Unlock()

	// Every client handler removes itself once its socket is closed
	ctr.waitGroup.Wait()

	var err error
	close(ctr.recvStop)
	if !waitStopped(ctr.doneWsRecv) {
		err = errors.New("Failed to stop recv loop")
	}
	close(ctr.sendStop)
	if !waitStopped(ctr.doneWsSend) {
		err = errors.New("Failed to stop send loop")
	}
	return err
}

func waitStopped(done chan interface{}) bool {
	select {
	case <-done:
		return true
	case <-time.After(loopStopTimeout):
		return false
	}
}
