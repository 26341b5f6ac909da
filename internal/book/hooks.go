package book

// Hooks is the plugin surface the order book calls into at five fixed
// points in its own lifecycle. Plugins are composed additively: the
// book holds an ordered slice of Hooks and runs every one of them at
// each point, in registration order, rather than the mixin/template
// chain the original uses (src/book/plugin.h, src/book/ob.h). Embed
// BaseHooks to get no-op defaults for the hooks a plugin does not
// care about.
type Hooks interface {
	// InterceptAdd runs at the start of AddTracker, before matching
	// (for a fresh Add that is after ShouldAdd and after the accept
	// callback is queued), and can claim a taker
	// outright: returning true tells AddTracker to skip matching and
	// resting entirely for this call, because the plugin has already
	// taken ownership of the tracker (StopOrders parking it off-book
	// until its trigger price is reached). At most one registered
	// plugin is expected to claim any given taker.
	InterceptAdd(ob *OrderBook, taker *Tracker) bool

	// ShouldAdd runs before a new taker is matched against the book.
	// Returning anything other than DontReject rejects the order; the
	// last plugin in registration order to return a non-DontReject
	// value wins.
	ShouldAdd(ob *OrderBook, taker *Tracker) InsertRejectReason

	// AfterAddTracker runs once per AddTracker call (every Add, plus
	// every plugin resubmission), after matching has completed and the
	// taker has either rested, been cancelled, or filled. It does not
	// run for a taker claimed by InterceptAdd.
	AfterAddTracker(ob *OrderBook, taker *Tracker)

	// ShouldTrade runs before a prospective cross is applied. Returning
	// a CancelReason other than DontCancel cancels that side instead of
	// trading it; both the taker and maker reasons accumulate across
	// the registered plugins the same way ShouldAdd does.
	ShouldTrade(ob *OrderBook, taker, maker *Tracker) (takerReason, makerReason CancelReason)

	// AfterTrade runs once per completed fill, after both trackers have
	// been updated and the trade callback emitted.
	AfterTrade(ob *OrderBook, taker, maker *Tracker, makerIsBid bool, qty, price float64)

	// OnMarketPriceChange runs whenever a trade moves the book's last
	// traded price. Used by stop orders to decide what to trigger.
	OnMarketPriceChange(ob *OrderBook, prevPrice, newPrice float64)
}

// BaseHooks is a no-op Hooks implementation meant to be embedded by
// plugins that only care about a subset of the hook points.
type BaseHooks struct{}

func (BaseHooks) InterceptAdd(*OrderBook, *Tracker) bool { return false }

func (BaseHooks) ShouldAdd(*OrderBook, *Tracker) InsertRejectReason { return DontReject }

func (BaseHooks) AfterAddTracker(*OrderBook, *Tracker) {}

func (BaseHooks) ShouldTrade(*OrderBook, *Tracker, *Tracker) (CancelReason, CancelReason) {
	return DontCancel, DontCancel
}

func (BaseHooks) AfterTrade(*OrderBook, *Tracker, *Tracker, bool, float64, float64) {}

func (BaseHooks) OnMarketPriceChange(*OrderBook, float64, float64) {}
