package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to live view connections. The listing to
// watch is selected with the "listing" query parameter.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	listingID := r.URL.Query().Get("listing")
	if listingID == "" {
		http.Error(w, "missing listing parameter", http.StatusBadRequest)
		return
	}
	if _, ok := h.hub.store.Snapshot(listingID); !ok {
		http.Error(w, "unknown listing", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		ID:        uuid.NewString(),
		ListingID: listingID,
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
	h.hub.Register(client)
}
