// Package ws exposes the engine to live views over WebSocket. A client
// attaches to one listing and receives listing updates, countdown ticks and
// animated display frames; bids, browse queries and watch toggles submitted
// by the client flow back through the engine and catalog like any other
// operation.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"auction_go/internal/domain"
	"auction_go/internal/engine"
	"auction_go/internal/event"
	"auction_go/internal/infra"
	"auction_go/internal/infra/storage"
	"auction_go/internal/view"
)

// Hub manages all live view connections. The run loop owns the subscriber
// map: registration, detachment and engine-subscription lifetimes all happen
// there, so no client ever holds a reference into engine state.
type Hub struct {
	store     *engine.Store
	countdown *engine.CountdownService
	catalog   *storage.Storage

	animation time.Duration
	cadence   time.Duration

	register    chan *Client
	unregister  chan *Client
	subscribers map[string]map[*Client]bool
}

// NewHub creates a hub bridging the store, countdown service and catalog to
// clients. Animation duration and frame cadence drive the per-client display
// projector.
func NewHub(store *engine.Store, countdown *engine.CountdownService, catalog *storage.Storage, animation, cadence time.Duration) *Hub {
	return &Hub{
		store:       store,
		countdown:   countdown,
		catalog:     catalog,
		animation:   animation,
		cadence:     cadence,
		register:    make(chan *Client),
		unregister:  make(chan *Client, 16),
		subscribers: make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's main loop. This should run in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.subscribers {
				for c := range clients {
					h.detachClient(c)
				}
			}
			return
		case client := <-h.register:
			h.attachClient(ctx, client)
		case client := <-h.unregister:
			h.detachClient(client)
		}
	}
}

// Register hands a new connection to the run loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister detaches a client. Safe to call from pump goroutines.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) attachClient(ctx context.Context, client *Client) {
	snap, ok := h.store.Snapshot(client.ListingID)
	if !ok {
		slog.Warn("Live view attach for unknown listing", slog.String("listing", client.ListingID))
		client.close()
		return
	}

	if h.subscribers[client.ListingID] == nil {
		h.subscribers[client.ListingID] = make(map[*Client]bool)
	}
	h.subscribers[client.ListingID][client] = true

	// Current state first, so the view renders before the first bid lands.
	client.trySend(marshalListingUpdate(h.store.PublishSeq(), snap))

	// Each client gets a private projector: its displayed bid eases from its
	// own last-rendered value toward every accepted bid, and the settled
	// frame lands exactly on the stored amount.
	observer := view.NewObserver(nil, h.animation, h.cadence, snap.CurrentBid, func(v decimal.Decimal) {
		client.trySend(marshalDisplayFrame(client.ListingID, v))
	})
	frameCtx, stopFrames := context.WithCancel(ctx)
	client.cancels = append(client.cancels, stopFrames)
	go observer.Run(frameCtx)

	unsubStore, err := h.store.Subscribe(client.ListingID, func(l domain.Listing) {
		observer.Update(l)
		client.trySend(marshalListingUpdate(h.store.PublishSeq(), l))
	})
	if err != nil {
		slog.Warn("Live view subscribe failed", slog.String("listing", client.ListingID), slog.Any("error", err))
		h.detachClient(client)
		return
	}
	client.cancels = append(client.cancels, unsubStore)

	cancelTicks, err := h.countdown.Subscribe(ctx, client.ListingID, func(cd domain.Countdown) {
		client.trySend(marshalCountdownTick(client.ListingID, cd))
	})
	if err == nil {
		client.cancels = append(client.cancels, cancelTicks)
	}

	infra.GlobalMetrics.IncrementClients()
	slog.Info("Live view attached",
		slog.String("client", client.ID),
		slog.String("listing", client.ListingID))

	go client.writePump()
	go client.readPump()
}

func (h *Hub) detachClient(client *Client) {
	clients, ok := h.subscribers[client.ListingID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)

	for _, cancel := range client.cancels {
		cancel()
	}
	client.cancels = nil
	client.close()

	infra.GlobalMetrics.DecrementClients()
	slog.Info("Live view detached",
		slog.String("client", client.ID),
		slog.String("listing", client.ListingID))
}

func marshalListingUpdate(seq uint64, l domain.Listing) []byte {
	ev := event.AcquireListingUpdateEvent()
	defer event.ReleaseListingUpdateEvent(ev)

	ev.Seq = seq
	ev.Ts = time.Now().UnixMilli()
	ev.Listing = l

	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		*event.ListingUpdateEvent
	}{Type: event.TypeListingUpdate, ListingUpdateEvent: ev})
	if err != nil {
		slog.Error("Failed to marshal listing update", slog.Any("error", err))
		return nil
	}
	return payload
}

func marshalCountdownTick(listingID string, cd domain.Countdown) []byte {
	ev := event.AcquireCountdownTickEvent()
	defer event.ReleaseCountdownTickEvent(ev)

	ev.Ts = time.Now().UnixMilli()
	ev.ListingID = listingID
	ev.Countdown = cd

	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		*event.CountdownTickEvent
	}{Type: event.TypeCountdownTick, CountdownTickEvent: ev})
	if err != nil {
		slog.Error("Failed to marshal countdown tick", slog.Any("error", err))
		return nil
	}
	return payload
}

func marshalDisplayFrame(listingID string, displayed decimal.Decimal) []byte {
	payload, err := json.Marshal(struct {
		Type      string          `json:"type"`
		ListingID string          `json:"listing_id"`
		Displayed decimal.Decimal `json:"displayed"`
	}{Type: "display_frame", ListingID: listingID, Displayed: displayed})
	if err != nil {
		slog.Error("Failed to marshal display frame", slog.Any("error", err))
		return nil
	}
	return payload
}
