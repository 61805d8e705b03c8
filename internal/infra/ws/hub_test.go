package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"auction_go/internal/domain"
	"auction_go/internal/engine"
	"auction_go/internal/infra/storage"
)

type wireMessage struct {
	Type       string `json:"type"`
	Accepted   bool   `json:"accepted"`
	BidID      string `json:"bid_id"`
	Proof      string `json:"proof"`
	Error      string `json:"error"`
	CurrentBid string `json:"current_bid"`
	Listing    *struct {
		ID         string `json:"id"`
		CurrentBid string `json:"current_bid"`
	} `json:"listing"`
	ListingID string `json:"listing_id"`
	Displayed string `json:"displayed"`
	Watched   bool   `json:"watched"`
	Listings  []struct {
		ID string `json:"id"`
	} `json:"listings"`
}

func startLiveView(t *testing.T) (*httptest.Server, *engine.Store) {
	t.Helper()

	store := engine.NewStore(16, nil, nil, nil)
	err := store.Load([]domain.Listing{{
		ID:          "L1",
		Title:       "Test Listing",
		StartingBid: decimal.NewFromInt(100),
		CurrentBid:  decimal.NewFromInt(100),
		EndTime:     time.Now().Add(time.Hour),
	}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go store.Run(ctx)

	cat, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	err = cat.UpsertListing(&domain.ListingInfo{
		ID:          "L1",
		Title:       "Test Listing",
		StartingBid: decimal.NewFromInt(100),
		EndTime:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	countdown := engine.NewCountdownService(store, nil, 50*time.Millisecond)
	hub := NewHub(store, countdown, cat, 80*time.Millisecond, 10*time.Millisecond)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, store
}

func dial(t *testing.T, srv *httptest.Server, listingID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?listing=" + listingID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) wireMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg wireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("no %s message received", msgType)
	return wireMessage{}
}

func TestHub_InitialSnapshotOnConnect(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")

	msg := readUntil(t, conn, "listing_update")
	if msg.Listing == nil || msg.Listing.ID != "L1" {
		t.Fatalf("unexpected listing payload: %+v", msg.Listing)
	}
	if msg.Listing.CurrentBid != "100" {
		t.Errorf("current bid = %s, want 100", msg.Listing.CurrentBid)
	}
}

func TestHub_BidRoundTrip(t *testing.T) {
	srv, store := startLiveView(t)
	conn := dial(t, srv, "L1")
	readUntil(t, conn, "listing_update")

	bid := map[string]string{"action": "bid", "bidder": "alice", "amount": "150"}
	if err := conn.WriteJSON(bid); err != nil {
		t.Fatalf("write bid: %v", err)
	}

	// The broadcast is queued before the reply reaches the submitter, so the
	// update frame precedes the bid result on the wire.
	update := readUntil(t, conn, "listing_update")
	if update.Listing.CurrentBid != "150" {
		t.Errorf("broadcast current bid = %s, want 150", update.Listing.CurrentBid)
	}

	res := readUntil(t, conn, "bid_result")
	if !res.Accepted {
		t.Fatalf("bid rejected: %s", res.Error)
	}
	if res.BidID == "" || !strings.HasPrefix(res.Proof, "0x") {
		t.Errorf("incomplete bid result: %+v", res)
	}

	snap, ok := store.Snapshot("L1")
	if !ok || !snap.CurrentBid.Equal(decimal.NewFromInt(150)) {
		t.Errorf("store current bid = %s, want 150", snap.CurrentBid)
	}
}

func TestHub_DisplayFramesConverge(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")
	readUntil(t, conn, "listing_update")

	bid := map[string]string{"action": "bid", "bidder": "alice", "amount": "150"}
	if err := conn.WriteJSON(bid); err != nil {
		t.Fatalf("write bid: %v", err)
	}

	// The projector eases the displayed value toward the accepted bid and
	// settles exactly on it.
	var frames []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame := readUntil(t, conn, "display_frame")
		if frame.ListingID != "L1" {
			t.Fatalf("frame for wrong listing: %s", frame.ListingID)
		}
		frames = append(frames, frame.Displayed)
		if frame.Displayed == "150" {
			break
		}
	}

	if len(frames) == 0 || frames[len(frames)-1] != "150" {
		t.Fatalf("frames never settled on 150: %v", frames)
	}
	for _, f := range frames[:len(frames)-1] {
		v, err := decimal.NewFromString(f)
		if err != nil {
			t.Fatalf("bad frame value %q: %v", f, err)
		}
		if v.LessThan(decimal.NewFromInt(100)) || v.GreaterThan(decimal.NewFromInt(150)) {
			t.Errorf("frame %s outside [100,150]", f)
		}
	}
}

func TestHub_RejectedBidReportsCurrentBid(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")
	readUntil(t, conn, "listing_update")

	low := map[string]string{"action": "bid", "bidder": "bob", "amount": "50"}
	if err := conn.WriteJSON(low); err != nil {
		t.Fatalf("write bid: %v", err)
	}

	res := readUntil(t, conn, "bid_result")
	if res.Accepted {
		t.Fatal("low bid was accepted")
	}
	if res.CurrentBid != "100" {
		t.Errorf("reported current bid = %s, want 100", res.CurrentBid)
	}
}

func TestHub_BrowseQuery(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")
	readUntil(t, conn, "listing_update")

	if err := conn.WriteJSON(map[string]string{"action": "browse", "query": "test"}); err != nil {
		t.Fatalf("write browse: %v", err)
	}
	res := readUntil(t, conn, "catalog")
	if len(res.Listings) != 1 || res.Listings[0].ID != "L1" {
		t.Fatalf("unexpected browse result: %+v", res.Listings)
	}

	if err := conn.WriteJSON(map[string]string{"action": "browse", "query": "no such thing"}); err != nil {
		t.Fatalf("write browse: %v", err)
	}
	res = readUntil(t, conn, "catalog")
	if len(res.Listings) != 0 {
		t.Fatalf("expected empty browse result, got %+v", res.Listings)
	}
}

func TestHub_WatchToggle(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")
	readUntil(t, conn, "listing_update")

	if err := conn.WriteJSON(map[string]string{"action": "watch"}); err != nil {
		t.Fatalf("write watch: %v", err)
	}
	res := readUntil(t, conn, "watch_result")
	if res.Error != "" || !res.Watched {
		t.Fatalf("expected watched after first toggle, got %+v", res)
	}

	if err := conn.WriteJSON(map[string]string{"action": "watch"}); err != nil {
		t.Fatalf("write watch: %v", err)
	}
	res = readUntil(t, conn, "watch_result")
	if res.Error != "" || res.Watched {
		t.Fatalf("expected unwatched after second toggle, got %+v", res)
	}
}

func TestHub_CountdownTicks(t *testing.T) {
	srv, _ := startLiveView(t)
	conn := dial(t, srv, "L1")

	tick := readUntil(t, conn, "countdown_tick")
	if tick.ListingID != "L1" {
		t.Errorf("tick listing = %s, want L1", tick.ListingID)
	}
}

func TestHub_UnknownListingRejected(t *testing.T) {
	srv, _ := startLiveView(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?listing=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for unknown listing")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("expected 404 response, got %+v", resp)
	}
}
