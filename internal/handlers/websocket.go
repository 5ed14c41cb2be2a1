package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tims-exe/secure-chat/internal/bus"
)

// WebSocketHandler relays a room's event channel to a connected client.
// Delivery is fire-and-forget: one write attempt per event, no replay. A
// client that reconnects reconciles against the list endpoints.
type WebSocketHandler struct {
	bus      bus.Bus
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(b bus.Bus, originCheck func(r *http.Request) bool) *WebSocketHandler {
	return &WebSocketHandler{
		bus: b,
		upgrader: websocket.Upgrader{
			CheckOrigin: originCheck,
		},
	}
}

// wsClientMessage is the only client-to-server frame we accept.
type wsClientMessage struct {
	Type string `json:"type"`
}

// HandleWebSocket subscribes the connection to the room channel and
// forwards events until either side goes away. Session auth has already
// run in the route middleware.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomId := normalizeID(chi.URLParam(r, "roomId"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sub, err := h.bus.Subscribe(r.Context(), roomId)
	if err != nil {
		log.Printf("WebSocket subscribe error (roomId=%s): %v", roomId, err)
		return
	}
	defer sub.Close()

	log.Printf("WebSocket connected: roomId=%s", roomId)

	// pong frames and event frames share the connection
	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg wsClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error (roomId=%s): %v", roomId, err)
				}
				return
			}
			if msg.Type == "ping" {
				if err := writeJSON(map[string]string{"type": "pong"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeJSON(ev); err != nil {
				return
			}
		case <-done:
			log.Printf("WebSocket disconnected: roomId=%s", roomId)
			return
		}
	}
}
