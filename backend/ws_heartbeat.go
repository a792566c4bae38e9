package main

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsWriteTimeout     = 10 * time.Second
)

// writePump drains the client's send queue onto its connection and emits a
// ping frame whenever a full interval passes without traffic, so proxies
// between the solver and a watcher do not drop the stream during long
// searches. It owns every write on the connection and closes it on the way
// out; the read side then fails and unregisters the client.
func (c *ProgressClient) writePump() {
	defer c.conn.Close()

	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	write := func(msg []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return c.conn.WriteMessage(websocket.TextMessage, msg)
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := write(msg); err != nil {
				return
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := write(pingPayload); err != nil {
				return
			}
			lastWrite = time.Now()
		}
	}
}
