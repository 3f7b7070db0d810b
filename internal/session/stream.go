package session

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/jengzang/webgis-dashboard/internal/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream writes ctrl's events to conn as JSON until the peer goes away.
// The first message is a snapshot of the current state. Every event carries
// the full state, so a slow client that misses events catches up on the next one.
func Stream(conn *websocket.Conn, ctrl *view.Controller) error {
	events := make(chan view.Event, 16)
	cancel := ctrl.Subscribe(func(ev view.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer cancel()

	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev view.Event) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	}

	if err := send(view.Event{Seq: ctrl.Seq(), Kind: view.EventSnapshot, State: ctrl.State()}); err != nil {
		return err
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case ev := <-events:
			if err := send(ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}
