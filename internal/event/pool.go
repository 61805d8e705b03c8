package event

import (
	"sync"

	"auction_go/internal/domain"
)

// Event pools reduce GC pressure on the broadcast path, where countdown
// ticks fire once per second per listing and every accepted bid fans out to
// all connected views.
//
// Usage:
//
//	ev := AcquireCountdownTickEvent()
//	ev.ListingID = "1"
//	// ... marshal / broadcast ...
//	ReleaseCountdownTickEvent(ev)
var listingUpdatePool = sync.Pool{
	New: func() interface{} {
		return &ListingUpdateEvent{}
	},
}

// AcquireListingUpdateEvent gets a ListingUpdateEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireListingUpdateEvent() *ListingUpdateEvent {
	return listingUpdatePool.Get().(*ListingUpdateEvent)
}

// ReleaseListingUpdateEvent returns a ListingUpdateEvent to the pool.
// The event is reset to zero values before being pooled.
func ReleaseListingUpdateEvent(ev *ListingUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Listing = domain.Listing{}

	listingUpdatePool.Put(ev)
}

// CountdownTickEvent pool
var countdownTickPool = sync.Pool{
	New: func() interface{} {
		return &CountdownTickEvent{}
	},
}

// AcquireCountdownTickEvent gets a CountdownTickEvent from the pool.
func AcquireCountdownTickEvent() *CountdownTickEvent {
	return countdownTickPool.Get().(*CountdownTickEvent)
}

// ReleaseCountdownTickEvent returns a CountdownTickEvent to the pool.
func ReleaseCountdownTickEvent(ev *CountdownTickEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.ListingID = ""
	ev.Countdown = domain.Countdown{}

	countdownTickPool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
// It acquires and releases a batch of events.
func Warmup() {
	const batchSize = 256

	updates := make([]*ListingUpdateEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		updates = append(updates, AcquireListingUpdateEvent())
	}
	for _, ev := range updates {
		ReleaseListingUpdateEvent(ev)
	}

	ticks := make([]*CountdownTickEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		ticks = append(ticks, AcquireCountdownTickEvent())
	}
	for _, ev := range ticks {
		ReleaseCountdownTickEvent(ev)
	}
}
