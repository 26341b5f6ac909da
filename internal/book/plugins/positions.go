package plugins

import "fenrir/internal/book"

// Position is one user's net exposure in a single book: a signed qty
// (positive long, negative short) and the volume-weighted price it
// was built at.
type Position struct {
	Qty       float64
	BasePrice float64
}

// Positions tracks per-user net exposure across every trade and emits
// open/update/close callbacks as positions form, grow, shrink, close,
// or flip. Grounded on src/book/plugins/positions.h.
//
// C++ expresses cross-plugin dependency (ReduceOnly reacting to a
// closed position) through PositionsInterface::on_position_close, a
// virtual method other plugins override. Go has no mixin dispatch, so
// Positions exposes OnClose to register plain closures instead —
// ReduceOnly subscribes one at construction time.
type Positions struct {
	book.BaseHooks

	byUser  map[uint64]*Position
	onClose []func(ob *book.OrderBook, userID uint64)
}

func NewPositions() *Positions {
	return &Positions{byUser: make(map[uint64]*Position)}
}

// OnClose registers a listener invoked whenever a user's position
// closes (reaches exactly zero or reverses sign). ob is the book the
// close happened on, so the listener can act on it (ReduceOnly
// cancelling the user's resting orders, for instance).
func (p *Positions) OnClose(fn func(ob *book.OrderBook, userID uint64)) {
	p.onClose = append(p.onClose, fn)
}

// GetPosition returns a user's current position, if they have one.
func (p *Positions) GetPosition(userID uint64) (Position, bool) {
	pos, ok := p.byUser[userID]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

func (p *Positions) entry(userID uint64) *Position {
	pos, ok := p.byUser[userID]
	if !ok {
		pos = &Position{}
		p.byUser[userID] = pos
	}
	return pos
}

func (p *Positions) AfterTrade(ob *book.OrderBook, taker, maker *book.Tracker, makerIsBid bool, qty, price float64) {
	takerUserID, makerUserID := taker.UserID(), maker.UserID()

	p.updatePosition(ob, p.entry(makerUserID), makerUserID, makerIsBid, qty, price)
	p.updatePosition(ob, p.entry(takerUserID), takerUserID, !makerIsBid, qty, price)
}

func (p *Positions) updatePosition(ob *book.OrderBook, pos *Position, userID uint64, isBid bool, qty, price float64) {
	signedQty := qty
	if !isBid {
		signedQty = -qty
	}
	newQty := pos.Qty + signedQty

	// Increasing a position, or opening one: does not cross zero.
	if pos.Qty == 0 || isBid == (pos.Qty > 0) {
		pos.BasePrice = (pos.BasePrice*pos.Qty + price*signedQty) / (signedQty + pos.Qty)

		if pos.Qty == 0 {
			ob.EmitCallback(book.PositionOpenCallback(userID, newQty, pos.BasePrice))
		} else {
			ob.EmitCallback(book.PositionUpdateCallback(userID, newQty, pos.BasePrice))
		}
	} else {
		// Reducing a position, possibly through zero and into a reversal.
		if newQty == 0 || (newQty > 0) != (pos.Qty > 0) {
			ob.EmitCallback(book.PositionCloseCallback(userID))
			for _, fn := range p.onClose {
				fn(ob, userID)
			}

			if newQty != 0 {
				pos.BasePrice = price
				ob.EmitCallback(book.PositionOpenCallback(userID, newQty, pos.BasePrice))
			}
		} else {
			ob.EmitCallback(book.PositionUpdateCallback(userID, newQty, pos.BasePrice))
		}
	}

	pos.Qty = newQty
	if newQty == 0 {
		delete(p.byUser, userID)
	}
}
