package plugins

import (
	"math"

	"fenrir/internal/book"
)

// ReduceOnly rejects orders that would grow or flip a user's position,
// and keeps resting reduce-only orders sized so they never trade past
// flat. Grounded on src/book/plugins/reduce_only.h; depends on
// Positions the same way PositionsInterface does in the original, but
// through the OnClose subscription instead of virtual override.
type ReduceOnly struct {
	book.BaseHooks

	positions *Positions
	byUser    map[uint64][]book.Order
}

func NewReduceOnly(positions *Positions) *ReduceOnly {
	ro := &ReduceOnly{positions: positions, byUser: make(map[uint64][]book.Order)}
	positions.OnClose(ro.onPositionClose)
	return ro
}

func (ro *ReduceOnly) ShouldAdd(_ *book.OrderBook, taker *book.Tracker) book.InsertRejectReason {
	if !taker.ReduceOnly() {
		return book.DontReject
	}

	pos, found := ro.positions.GetPosition(taker.UserID())

	// An order would either increase the current position or open one
	// in the opposite direction of none at all — reject outright.
	if !found || (pos.Qty > 0) == taker.IsBid() {
		return book.ReduceOnlyIncrease
	}
	if taker.OpenQty() > math.Abs(pos.Qty) {
		return book.ReduceOnlyReverse
	}

	ro.byUser[taker.UserID()] = append(ro.byUser[taker.UserID()], taker.Order())
	return book.DontReject
}

// ShouldTrade only examines the maker: the taker side of a reduce-only
// violation is rejected up front in ShouldAdd. A resting reduce-only
// maker can still end up oversized if the user's position shrank
// after the order was accepted; this resizes it down to exactly flat
// in place and then lets the match proceed against the resized
// tracker — the maker is never cancelled out of the trade.
func (ro *ReduceOnly) ShouldTrade(ob *book.OrderBook, _, maker *book.Tracker) (book.CancelReason, book.CancelReason) {
	if !maker.ReduceOnly() {
		return book.DontCancel, book.DontCancel
	}

	pos, found := ro.positions.GetPosition(maker.UserID())
	if !found {
		return book.DontCancel, book.DontCancel
	}

	if maker.OpenQty() > math.Abs(pos.Qty) {
		delta := math.Abs(pos.Qty) - maker.OpenQty()
		ob.DoReplace(maker.Order(), delta)
	}

	return book.DontCancel, book.DontCancel
}

func (ro *ReduceOnly) onPositionClose(ob *book.OrderBook, userID uint64) {
	for _, order := range ro.byUser[userID] {
		ob.DoCancel(order, book.ReduceOnlyClose)
	}
	delete(ro.byUser, userID)
}
