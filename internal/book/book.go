package book

// OrderBook is the single-instrument matching core: one bid side, one
// ask side, a registered chain of plugin Hooks, and a callback sink
// flushed once per public entry point. Ported from src/book/ob.h; the
// C++ template parameter pack (OB<Tracker, Plugins...>) becomes a
// plain slice of Hooks built at construction time (see DESIGN.md).
//
// Every exported method here runs to completion before returning —
// there is no internal concurrency. Callers own their own
// serialization if an OrderBook is shared across goroutines.
type OrderBook struct {
	symbolID    uint32
	marketPrice float64

	bids *sideBook
	asks *sideBook

	hooks []Hooks
	sink  func([]Callback)

	callbacks        []Callback
	isTakerCancelled bool
}

// NewOrderBook builds an OrderBook for one symbol. sink is invoked
// synchronously, once per public entry point, with the full batch of
// callbacks that entry point produced; it must not retain the slice
// past the call. hooks are run in the order given.
func NewOrderBook(symbolID uint32, sink func([]Callback), hooks ...Hooks) *OrderBook {
	return &OrderBook{
		symbolID: symbolID,
		bids:     newSideBook(true),
		asks:     newSideBook(false),
		hooks:    hooks,
		sink:     sink,
	}
}

func (ob *OrderBook) SymbolID() uint32     { return ob.symbolID }
func (ob *OrderBook) MarketPrice() float64 { return ob.marketPrice }

// LevelSnapshot is a read-only view of one resting price level, for
// tests and depth projections that want a cheap summary without
// reaching into book internals.
type LevelSnapshot struct {
	Price        float64
	OrderCount   int
	AggregateQty float64
}

func (ob *OrderBook) sideFor(isBid bool) *sideBook {
	if isBid {
		return ob.bids
	}
	return ob.asks
}

// BestBid returns the highest resting bid price, if any.
func (ob *OrderBook) BestBid() (float64, bool) {
	level, ok := ob.bids.best()
	if !ok {
		return 0, false
	}
	return level.key.Price(), true
}

// BestAsk returns the lowest resting ask price, if any.
func (ob *OrderBook) BestAsk() (float64, bool) {
	level, ok := ob.asks.best()
	if !ok {
		return 0, false
	}
	return level.key.Price(), true
}

// Levels returns a best-to-worst snapshot of one side, for tests and
// diagnostics.
func (ob *OrderBook) Levels(isBid bool) []LevelSnapshot {
	var out []LevelSnapshot
	ob.sideFor(isBid).ascend(func(level *priceLevel) bool {
		var qty float64
		for _, t := range level.orders {
			qty += t.QtyOnBook()
		}
		out = append(out, LevelSnapshot{Price: level.key.Price(), OrderCount: len(level.orders), AggregateQty: qty})
		return true
	})
	return out
}

// Callbacks exposes the in-flight callback batch for the current
// entry point. Plugins (Routable in particular) use this to rewrite
// the Scope of callbacks already queued this cycle; the returned
// slice shares storage with the book's own, so index writes are
// visible to the eventual flush.
func (ob *OrderBook) Callbacks() []Callback {
	return ob.callbacks
}

func (ob *OrderBook) emit(cb Callback) {
	ob.callbacks = append(ob.callbacks, cb)
}

func (ob *OrderBook) emitCancel(tracker *Tracker, reason CancelReason) {
	ob.emit(cbCancel(tracker.OrderPtr(), tracker.QtyOnBook(), tracker.FilledQty(), tracker.AvgPrice(), reason))
}

// EmitCallback lets plugins queue a callback of their own (e.g.
// Positions' open/update/close records, StopOrders' trigger record)
// onto the current batch.
func (ob *OrderBook) EmitCallback(cb Callback) {
	ob.emit(cb)
}

// Flush hands the current callback batch to the sink and clears it.
// Plugins that re-enter the book outside of Add/Cancel/Replace — a
// routing response arriving asynchronously, for instance — call this
// once they're done, the same way those entry points do internally.
func (ob *OrderBook) Flush() {
	ob.flush()
}

func (ob *OrderBook) flush() {
	if len(ob.callbacks) == 0 || ob.sink == nil {
		ob.callbacks = ob.callbacks[:0]
		return
	}
	batch := make([]Callback, len(ob.callbacks))
	copy(batch, ob.callbacks)
	ob.callbacks = ob.callbacks[:0]
	ob.sink(batch)
}

func (ob *OrderBook) runInterceptAdd(taker *Tracker) bool {
	for _, h := range ob.hooks {
		if h.InterceptAdd(ob, taker) {
			return true
		}
	}
	return false
}

func (ob *OrderBook) runShouldAdd(taker *Tracker) InsertRejectReason {
	reason := DontReject
	for _, h := range ob.hooks {
		if r := h.ShouldAdd(ob, taker); r != DontReject {
			reason = r
		}
	}
	return reason
}

func (ob *OrderBook) runAfterAddTracker(taker *Tracker) {
	for _, h := range ob.hooks {
		h.AfterAddTracker(ob, taker)
	}
}

func (ob *OrderBook) runShouldTrade(taker, maker *Tracker) (CancelReason, CancelReason) {
	takerReason, makerReason := DontCancel, DontCancel
	for _, h := range ob.hooks {
		tr, mr := h.ShouldTrade(ob, taker, maker)
		if tr != DontCancel {
			takerReason = tr
		}
		if mr != DontCancel {
			makerReason = mr
		}
	}
	return takerReason, makerReason
}

func (ob *OrderBook) runAfterTrade(taker, maker *Tracker, makerIsBid bool, qty, price float64) {
	for _, h := range ob.hooks {
		h.AfterTrade(ob, taker, maker, makerIsBid, qty, price)
	}
}

func (ob *OrderBook) runOnMarketPriceChange(prev, cur float64) {
	for _, h := range ob.hooks {
		h.OnMarketPriceChange(ob, prev, cur)
	}
}

// SetMarketPrice updates the book's last traded price and, if it
// actually changed, runs OnMarketPriceChange on every registered hook.
// Every trade calls it; it is exported so a host can also set the
// market price outside of a trade through the same notification path.
func (ob *OrderBook) SetMarketPrice(price float64) {
	prev := ob.marketPrice
	ob.marketPrice = price
	if prev != price {
		ob.runOnMarketPriceChange(prev, price)
	}
}

// Add accepts a new order, matches it against the opposite side, and
// rests whatever remains. Returns true if the order matched at least
// one resting order on this call.
func (ob *OrderBook) Add(order Order) bool {
	taker := NewTracker(order)

	if reason := ob.runShouldAdd(taker); reason != DontReject {
		ob.emit(cbReject(&order, reason))
		ob.flush()
		return false
	}

	acceptIdx := len(ob.callbacks)
	ob.emit(cbAccept(taker.OrderPtr()))

	matched := ob.AddTracker(taker)

	ob.callbacks[acceptIdx].Qty = taker.FilledQty()
	ob.callbacks[acceptIdx].AvgPrice = taker.AvgPrice()

	ob.emit(cbBookUpdate())
	ob.flush()
	return matched
}

// AddTracker runs a standalone tracker through the matching loop and,
// if anything is left over, either rests it or cancels it for lack of
// a cross (market orders never rest). Exported for plugins that
// resubmit trackers outside of a fresh Add call: StopOrders'
// triggered resubmission and Routable's post-routing replay.
func (ob *OrderBook) AddTracker(taker *Tracker) bool {
	if ob.runInterceptAdd(taker) {
		return false
	}

	makers := ob.sideFor(!taker.IsBid())
	matched := ob.match(taker, makers)

	if !taker.Filled() && !ob.isTakerCancelled {
		if taker.Price() == 0 {
			ob.emitCancel(taker, NoLiquidity)
		} else {
			level := ob.sideFor(taker.IsBid()).getOrCreate(taker.Price())
			level.orders = append(level.orders, taker)
		}
	}

	ob.runAfterAddTracker(taker)
	ob.isTakerCancelled = false
	return matched
}

// match walks the opposite side from best price outward, running
// ShouldTrade at each prospective cross before applying it.
func (ob *OrderBook) match(taker *Tracker, makers *sideBook) bool {
	matched := false

	for !taker.Filled() {
		level, ok := makers.best()
		if !ok {
			break
		}
		if !level.key.Matches(taker.Price()) {
			break
		}
		if len(level.orders) == 0 {
			makers.delete(level)
			continue
		}
		maker := level.orders[0]

		takerReason, makerReason := ob.runShouldTrade(taker, maker)

		if makerReason != DontCancel {
			ob.emitCancel(maker, makerReason)
			removeTracker(makers, level, maker)
		}

		if takerReason != DontCancel {
			ob.emitCancel(taker, takerReason)
			ob.isTakerCancelled = true
			break
		}

		if makerReason != DontCancel {
			continue
		}

		if traded := ob.trade(taker, maker); traded > 0 {
			matched = true
			if maker.Filled() {
				removeTracker(makers, level, maker)
			}
		}
	}

	return matched
}

// trade applies one fill between taker and maker at the maker's
// price, the only price a resting order can trade at.
func (ob *OrderBook) trade(taker, maker *Tracker) float64 {
	price := maker.Price()
	fillQty := min(taker.TradableQty(price), maker.TradableQty(price))
	if fillQty <= 0 {
		return 0
	}
	fillCost := fillQty * price

	if err := taker.Fill(fillQty, fillCost); err != nil {
		panic(err)
	}
	if err := maker.Fill(fillQty, fillCost); err != nil {
		panic(err)
	}

	var flags FillFlags
	if taker.Filled() {
		flags |= TakerFilled
	}
	if maker.Filled() {
		flags |= MakerFilled
	}

	ob.emit(cbFill(taker.OrderPtr(), maker.OrderPtr(), fillQty, price, taker.AvgPrice(), maker.AvgPrice(), taker.FilledQty(), maker.FilledQty(), flags))

	ob.SetMarketPrice(price)
	ob.runAfterTrade(taker, maker, maker.IsBid(), fillQty, price)

	return fillQty
}

// DoCancel cancels a resting order without emitting the trailing
// book-update callback or flushing the batch — the piece plugins need
// when they cancel a resting order as a side effect of some other
// entry point (ReduceOnly reacting to a position close, for example).
// Cancel wraps this for the public, one-shot entry point.
func (ob *OrderBook) DoCancel(order Order, reason CancelReason) {
	side := ob.sideFor(order.IsBid)
	level, ok := side.get(order.Price)
	if ok {
		if idx := findIndex(level, order.OrderID); idx >= 0 {
			tracker := level.orders[idx]
			if tracker.Filled() {
				return
			}
			ob.emitCancel(tracker, reason)
			removeIndex(side, level, idx)
			return
		}
	}
	if reason == UserCancel {
		ob.emit(cbCancelReject(&order, 0, 0, CancelRejectNotFound))
	}
}

// Cancel is the public cancel entry point.
func (ob *OrderBook) Cancel(order Order, reason CancelReason) {
	ob.DoCancel(order, reason)
	ob.emit(cbBookUpdate())
	ob.flush()
}

// DoReplace adjusts a resting order's qty by delta (negative to
// shrink, positive to grow), clamped so it never drives qty negative,
// and cancels the order outright if the result falls below
// MinOrderQty. Unlike DoCancel, a successful replace emits its own
// trailing book_update inline (matching ob.h's do_replace), since
// ReduceOnly calls this mid-match and the resized level needs to be
// visible before the match loop's subsequent trades are emitted.
// Exposed for plugins (ReduceOnly downsizing a maker in place) the
// same way DoCancel is.
func (ob *OrderBook) DoReplace(order Order, delta float64) {
	side := ob.sideFor(order.IsBid)
	level, ok := side.get(order.Price)
	if !ok {
		ob.emit(cbReplaceReject(&order, 0, 0, ReplaceRejectNotFound))
		return
	}
	idx := findIndex(level, order.OrderID)
	if idx < 0 {
		ob.emit(cbReplaceReject(&order, 0, 0, ReplaceRejectNotFound))
		return
	}

	tracker := level.orders[idx]
	openQty := tracker.OpenQty()
	if openQty < MinOrderQty {
		ob.emit(cbReplaceReject(tracker.OrderPtr(), tracker.FilledQty(), tracker.AvgPrice(), ReplaceRejectNoQty))
		return
	}

	if delta < 0 && -delta > openQty {
		delta = -openQty
	}
	tracker.ChangeOpenQty(delta)

	ob.emit(cbReplace(tracker.OrderPtr(), delta, openQty, tracker.FilledQty(), tracker.AvgPrice()))

	if tracker.OpenQty() < MinOrderQty {
		ob.emitCancel(tracker, ReplacedAllQty)
		removeIndex(side, level, idx)
	}

	ob.emit(cbBookUpdate())
}

// Replace is the public replace entry point.
func (ob *OrderBook) Replace(order Order, delta float64) {
	ob.DoReplace(order, delta)
	ob.flush()
}
