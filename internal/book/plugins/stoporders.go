package plugins

import (
	"github.com/tidwall/btree"

	"fenrir/internal/book"
)

// stopLevel groups every stop order parked at one trigger price, kept
// off the live book entirely until the market crosses it.
type stopLevel struct {
	key    book.BookPrice
	orders []*book.Tracker
}

// StopOrders parks orders whose stop price has not yet been reached
// in side containers of their own, and resubmits them to the book the
// instant a trade moves the market price across that level. Grounded
// on src/book/plugins/stop_orders.h.
//
// C++ intercepts the add pipeline through should_add_tracker, a hook
// wider than should_add (it can skip matching and resting outright,
// not just reject). InterceptAdd is that hook's Go name — see
// book.Hooks and OrderBook.AddTracker.
type StopOrders struct {
	book.BaseHooks

	bids *btree.BTreeG[*stopLevel]
	asks *btree.BTreeG[*stopLevel]

	pending []*book.Tracker
}

func NewStopOrders() *StopOrders {
	less := func(a, b *stopLevel) bool { return a.key.LessKey(b.key) }
	return &StopOrders{
		bids: btree.NewBTreeG(less),
		asks: btree.NewBTreeG(less),
	}
}

func (so *StopOrders) sideFor(isBid bool) *btree.BTreeG[*stopLevel] {
	if isBid {
		return so.bids
	}
	return so.asks
}

// InterceptAdd parks taker off-book if its stop hasn't triggered yet,
// returning true to tell AddTracker to skip the normal match/rest
// pipeline for this call entirely.
func (so *StopOrders) InterceptAdd(ob *book.OrderBook, taker *book.Tracker) bool {
	stopPrice := taker.StopPrice()
	if stopPrice == 0 {
		return false
	}

	key := book.NewBookPrice(taker.IsBid(), stopPrice)
	if ob.MarketPrice() != 0 && key.GreaterEq(ob.MarketPrice()) {
		// Already past the trigger level: let it flow through the
		// ordinary add/match pipeline like any other order. A zero
		// market price (nothing has traded yet) triggers nothing.
		return false
	}

	side := so.sideFor(taker.IsBid())
	level, ok := side.GetMut(&stopLevel{key: key})
	if !ok {
		level = &stopLevel{key: key}
		side.Set(level)
	}
	level.orders = append(level.orders, taker)
	return true
}

// AfterAddTracker drains every stop order triggered as a side effect
// of the add that just completed, resubmitting them one at a time.
// Resubmission runs through the full hook chain again (AddTracker),
// and stops released by those resubmissions are picked up by the loop
// below until nothing is left pending.
func (so *StopOrders) AfterAddTracker(ob *book.OrderBook, _ *book.Tracker) {
	for len(so.pending) > 0 {
		so.submitPending(ob)
	}
}

func (so *StopOrders) submitPending(ob *book.OrderBook) {
	pending := so.pending
	so.pending = nil
	for _, tracker := range pending {
		ob.AddTracker(tracker)
		ob.EmitCallback(book.StopTriggerCallback(tracker.OrderPtr()))
	}
}

// OnMarketPriceChange releases every stop level the new price has
// reached: a rising price releases parked buy stops, a falling price
// releases parked sell stops.
func (so *StopOrders) OnMarketPriceChange(_ *book.OrderBook, prevPrice, newPrice float64) {
	if prevPrice == newPrice {
		return
	}

	rising := newPrice > prevPrice
	side := so.sideFor(rising)
	until := book.NewBookPrice(rising, newPrice)

	// Stops pop nearest-trigger-first (the lowest buy stop, the highest
	// sell stop) and the scan stops at the first level newPrice has not
	// reached.
	for {
		level, ok := side.MaxMut()
		if !ok || level.key.LessKey(until) {
			break
		}
		so.pending = append(so.pending, level.orders...)
		side.Delete(level)
	}
}
