package events

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 10 * time.Second

// ServeWS upgrades the connection and streams hub events as JSON frames
// until the client disconnects.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("[events] Websocket upgrade failed")
			return
		}

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)
		defer conn.Close()

		logger.WithField("remote", r.RemoteAddr).Info("[events] Client connected")

		// Drain the read side so close frames are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case event, ok := <-ch:
				if !ok {
					return
				}

				if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					logger.WithError(err).Debug("[events] Write failed, dropping client")
					return
				}
			}
		}
	}
}
