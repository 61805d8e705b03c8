package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"auction_go/internal/catalog"
	"auction_go/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	sendBuffer = 32

	bidTimeout = 5 * time.Second
)

// Client is one live view connection, pinned to a single listing for its
// lifetime.
type Client struct {
	ID        string
	ListingID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	// cancels holds the engine unsubscribe hooks. Owned by the hub run loop.
	cancels []func()
}

// close marks the client finished. The send channel is never closed because
// engine callbacks may still be in flight; they observe done instead.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// clientMessage is the envelope for all inbound actions: "bid", "browse"
// and "watch".
type clientMessage struct {
	Action string `json:"action"`

	// bid
	Bidder string `json:"bidder,omitempty"`
	Amount string `json:"amount,omitempty"`

	// browse
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	MinPrice string `json:"min_price,omitempty"`
	MaxPrice string `json:"max_price,omitempty"`
	Order    string `json:"order,omitempty"`
}

type bidResult struct {
	Type       string `json:"type"`
	Accepted   bool   `json:"accepted"`
	BidID      string `json:"bid_id,omitempty"`
	Proof      string `json:"proof,omitempty"`
	Error      string `json:"error,omitempty"`
	CurrentBid string `json:"current_bid,omitempty"`
}

type catalogResult struct {
	Type     string           `json:"type"`
	Listings []domain.Listing `json:"listings"`
}

type watchResult struct {
	Type    string `json:"type"`
	Watched bool   `json:"watched"`
	Error   string `json:"error,omitempty"`
}

// trySend queues a payload without blocking. A client that cannot keep up is
// dropped rather than stalling the publisher.
func (c *Client) trySend(payload []byte) {
	if payload == nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		slog.Warn("Live view send buffer full, dropping client", slog.String("client", c.ID))
		c.hub.Unregister(c)
	}
}

// readPump consumes client actions from the connection until it closes.
func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Live view read error", slog.String("client", c.ID), slog.Any("error", err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "bid":
			c.handleBid(msg)
		case "browse":
			c.handleBrowse(msg)
		case "watch":
			c.handleWatch()
		}
	}
}

func (c *Client) handleBid(msg clientMessage) {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		c.trySend(marshalJSON(bidResult{Type: "bid_result", Error: "invalid amount"}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bidTimeout)
	defer cancel()

	bid, err := c.hub.store.SubmitBid(ctx, c.ListingID, msg.Bidder, amount)
	if err != nil {
		res := bidResult{Type: "bid_result", Error: err.Error()}
		var berr *domain.BidError
		if errors.As(err, &berr) {
			res.CurrentBid = berr.CurrentBid.String()
		}
		c.trySend(marshalJSON(res))
		return
	}
	c.trySend(marshalJSON(bidResult{
		Type:     "bid_result",
		Accepted: true,
		BidID:    bid.ID,
		Proof:    bid.Proof,
	}))
}

// handleBrowse answers a catalog query over the current snapshots. Prices
// that fail to parse disable their bound rather than failing the query.
func (c *Client) handleBrowse(msg clientMessage) {
	f := catalog.Filter{Query: msg.Query, Category: msg.Category}
	if lo, err := decimal.NewFromString(msg.MinPrice); err == nil {
		f.MinPrice = lo
	}
	if hi, err := decimal.NewFromString(msg.MaxPrice); err == nil {
		f.MaxPrice = hi
	}

	listings := catalog.Apply(c.hub.store.Snapshots(), f)
	listings = catalog.Sort(listings, catalog.SortOrder(msg.Order))

	c.trySend(marshalJSON(catalogResult{Type: "catalog", Listings: listings}))
}

// handleWatch flips this listing's watchlist flag in the catalog store.
func (c *Client) handleWatch() {
	if c.hub.catalog == nil {
		c.trySend(marshalJSON(watchResult{Type: "watch_result", Error: "watchlist unavailable"}))
		return
	}
	watched, err := c.hub.catalog.ToggleWatched(c.ListingID)
	if err != nil {
		c.trySend(marshalJSON(watchResult{Type: "watch_result", Error: err.Error()}))
		return
	}
	c.trySend(marshalJSON(watchResult{Type: "watch_result", Watched: watched}))
}

// writePump flushes the send channel to the connection and keeps it alive
// with pings. One writePump per connection; gorilla allows one writer only.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func marshalJSON(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return payload
}
