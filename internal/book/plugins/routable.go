package plugins

import "fenrir/internal/book"

// RoutingRequest describes one taker/maker match that needs to clear
// on an external venue before the core will treat it as real. Built
// up across AfterTrade (one match can route in several pieces at
// worsening prices) and handed to a RoutingHandler once the add that
// triggered it finishes.
type RoutingRequest struct {
	RequestID  uint64
	ExchangeID uint32
	SymbolID   uint32
	Qty        float64
	Price      float64
	IsBid      bool

	Maker *book.Tracker
	Taker *book.Tracker

	Callbacks []book.Callback
}

// RoutingHandler is the external collaborator Routable hands
// requests to. It is expected to answer asynchronously later, from
// outside the call that produced the request, via OnRoutingSuccess or
// OnRoutingFailure.
type RoutingHandler interface {
	OnRoutingRequest(req RoutingRequest)
}

// Routable defers trades against registered market-maker users to an
// external venue: once a taker has traded against a registered MM
// maker, it temporarily cancels the taker, marks the MM maker as
// pending (a later cross against it is cancelled with MMRouted),
// buffers the MM trade callbacks, and replays them (rescoped) once the
// venue responds.
// Grounded on src/book/plugins/routable.h.
type Routable struct {
	book.BaseHooks

	handler RoutingHandler

	mmu2x map[uint64]uint32
	x2mmu map[uint32]uint64

	pendingRequests      map[uint64]*RoutingRequest
	pendingMakerOrderIDs map[book.OrderID]struct{}

	nextRequest RoutingRequest
	shouldRoute bool
	requestSeq  uint64
}

func NewRoutable(handler RoutingHandler) *Routable {
	return &Routable{
		handler:              handler,
		mmu2x:                make(map[uint64]uint32),
		x2mmu:                make(map[uint32]uint64),
		pendingRequests:      make(map[uint64]*RoutingRequest),
		pendingMakerOrderIDs: make(map[book.OrderID]struct{}),
	}
}

// RegisterMarketMaker maps a local user id to the external venue it
// routes to.
func (r *Routable) RegisterMarketMaker(userID uint64, exchangeID uint32) {
	r.mmu2x[userID] = exchangeID
	r.x2mmu[exchangeID] = userID
}

func (r *Routable) resetRequest() {
	r.nextRequest = RoutingRequest{}
	r.shouldRoute = false
}

func (r *Routable) ShouldTrade(_ *book.OrderBook, _, maker *book.Tracker) (book.CancelReason, book.CancelReason) {
	exchangeID, isMM := r.mmu2x[maker.UserID()]
	if !isMM {
		// An ordinary user maker. If we're already mid-route from an
		// earlier maker this cycle, the taker can't trade here yet.
		if r.shouldRoute {
			return book.TemporaryCancel, book.DontCancel
		}
		return book.DontCancel, book.DontCancel
	}

	takerReason, makerReason := book.DontCancel, book.DontCancel

	if _, routing := r.pendingMakerOrderIDs[maker.OrderID()]; routing {
		makerReason = book.MMRouted
	}

	if r.shouldRoute && r.nextRequest.ExchangeID != exchangeID {
		// Already routing to a different venue this cycle; this maker
		// will be picked up again once the first route resolves.
		takerReason = book.TemporaryCancel
	}

	return takerReason, makerReason
}

func (r *Routable) AfterTrade(ob *book.OrderBook, taker, maker *book.Tracker, makerIsBid bool, qty, price float64) {
	exchangeID, isMM := r.mmu2x[maker.UserID()]
	if !isMM {
		return
	}

	r.pendingMakerOrderIDs[maker.OrderID()] = struct{}{}

	r.nextRequest.Taker = taker
	r.nextRequest.Maker = maker
	r.nextRequest.ExchangeID = exchangeID
	r.nextRequest.SymbolID = ob.SymbolID()
	r.nextRequest.Qty += qty
	// The price worsens with each successive fill, so the last one
	// written is the worst price — the one to quote on the request.
	r.nextRequest.Price = price
	r.nextRequest.IsBid = !makerIsBid
	r.shouldRoute = true
}

func (r *Routable) AfterAddTracker(ob *book.OrderBook, taker *book.Tracker) {
	if !r.shouldRoute {
		return
	}

	ob.DoCancel(taker.Order(), book.TemporaryCancel)

	cbs := ob.Callbacks()
	acceptIdx := len(cbs) - 1
	for acceptIdx > 0 && cbs[acceptIdx].Type != book.CbAccept {
		acceptIdx--
	}

	for i := acceptIdx; i < len(cbs); i++ {
		cb := &cbs[i]

		if cb.Type != book.CbTrade && cb.Type != book.CbCancel {
			continue
		}
		if cb.Order == nil || !cb.Order.OrderID.Equal(r.nextRequest.Taker.OrderID()) {
			continue
		}

		switch cb.Type {
		case book.CbTrade:
			if cb.MakerOrder == nil {
				continue
			}
			if _, isMM := r.mmu2x[cb.MakerOrder.UserID]; !isMM {
				continue
			}
			cb.Scope = book.ScopeInternalOnly
			r.nextRequest.Callbacks = append(r.nextRequest.Callbacks, *cb)
		case book.CbCancel:
			cb.Scope = book.ScopeSuppress
		}
	}

	r.requestSeq++
	r.nextRequest.RequestID = r.requestSeq
	req := r.nextRequest
	r.pendingRequests[req.RequestID] = &req
	r.resetRequest()

	if r.handler != nil {
		r.handler.OnRoutingRequest(req)
	}
}

// OnRoutingSuccess replays the buffered callbacks as external-only and
// resubmits whatever qty the taker still has, now that the routed
// portion is confirmed. Called by the routing dispatcher once the
// venue confirms.
func (r *Routable) OnRoutingSuccess(ob *book.OrderBook, requestID uint64) {
	req, ok := r.pendingRequests[requestID]
	if !ok {
		return
	}
	delete(r.pendingRequests, requestID)
	delete(r.pendingMakerOrderIDs, req.Maker.OrderID())

	for _, cb := range req.Callbacks {
		cb.Scope = book.ScopeExternalOnly
		ob.EmitCallback(cb)
	}

	if !req.Taker.Filled() {
		ob.Flush()

		ob.AddTracker(req.Taker)
		acceptIdx := len(ob.Callbacks())
		ob.EmitCallback(book.AcceptCallback(req.Taker.OrderPtr()))
		ob.Callbacks()[acceptIdx].Scope = book.ScopeSuppress
	}

	ob.Flush()
}

// OnRoutingFailure replays the buffered callbacks (minus the fill
// against the now-failed venue) and cancels whatever the taker still
// had working.
func (r *Routable) OnRoutingFailure(ob *book.OrderBook, requestID uint64) {
	req, ok := r.pendingRequests[requestID]
	if !ok {
		return
	}
	delete(r.pendingRequests, requestID)
	delete(r.pendingMakerOrderIDs, req.Maker.OrderID())

	mmUserID := r.x2mmu[req.ExchangeID]

	for _, cb := range req.Callbacks {
		if cb.Type == book.CbTrade && cb.MakerOrder != nil && cb.MakerOrder.UserID == mmUserID {
			continue
		}
		cb.Scope = book.ScopeExternalOnly
		ob.EmitCallback(cb)
	}

	cancelCb := book.CancelCallback(req.Taker.OrderPtr(), req.Taker.QtyOnBook(), req.Taker.FilledQty(), req.Taker.AvgPrice(), book.RoutingFailure)
	cancelCb.Scope = book.ScopeExternalOnly
	// The routed qty never really filled; net it out of the reported
	// filled total and fold it into the on-book figure the hold
	// manager uses to release the taker's reserved funds.
	cancelCb.Qty -= req.Qty
	cancelCb.Generic1 = req.Qty + req.Taker.QtyOnBook()
	ob.EmitCallback(cancelCb)

	ob.Flush()
}
