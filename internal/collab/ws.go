package collab

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ServeConn runs a fully authenticated websocket connection until it
// closes. Blocks for the lifetime of the connection; teardown (presence
// removal, leave snapshots, user-left broadcasts) is always executed, even
// on abrupt closure.
func ServeConn(ctx context.Context, co *Coordinator, conn *websocket.Conn, user *models.User) {
	client := NewClient(NewSession(user.Public()), 64)
	co.Register(client)

	go writePump(conn, client)

	defer func() {
		co.Disconnect(ctx, client)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("connection %s read: %v", client.Session.ConnID, err)
			}
			return
		}
		co.HandleEvent(ctx, client, env)
	}
}

func writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev, ok := <-client.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
