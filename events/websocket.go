package events

import (
	"context"
	"log"
	"net/http"
	"sitecraft/models"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// outbound is one frame sent to the client.
type outbound struct {
	Type      string               `json:"type"`
	ProjectID uuid.UUID            `json:"project_id"`
	Event     *models.ProjectEvent `json:"event,omitempty"`
}

// ServeWS upgrades the request and streams projectID's events until the
// client goes away. The caller is responsible for authorization.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Events: upgrade failed: project=%s error=%v", projectID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	events := h.Subscribe(ctx, projectID)
	log.Printf("Events: subscribed project=%s", projectID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		// Closing here unblocks the read loop below.
		defer conn.Close()

		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		if err := writeFrame(conn, outbound{Type: "subscribed", ProjectID: projectID}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
					return
				}
				if err := writeFrame(conn, outbound{Type: "event", ProjectID: projectID, Event: &event}); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reads only service control frames; the client sends nothing else.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
	log.Printf("Events: unsubscribed project=%s", projectID)
}

func writeFrame(conn *websocket.Conn, frame outbound) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
