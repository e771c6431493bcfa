package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// WebsocketPath is where clients open the controller websocket
const WebsocketPath = "/api/ws"

// HandleFunc upgrades the request to the controller websocket and serves
// it until the client leaves. Requests arriving after Shutdown are refused.
func (ctr *Controller) HandleFunc(w http.ResponseWriter, r *http.Request) {
	ws, err := ctr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		log.Warningf("Websocket upgrade error: %s", err.Error())
		return
	}
	if !ctr.addClient(ws) {
		ws.Close()
		return
	}
	log.Infof("Client connected from %s", r.RemoteAddr)
	ctr.serveClient(ws)
}

// Router mounts the controller websocket and, when metrics is not nil,
// the metrics endpoint.
func (ctr *Controller) Router(metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(WebsocketPath, ctr.HandleFunc)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}
