// Package plugins holds the book.Hooks implementations: composable
// policy add-ons that layer onto a bare OrderBook in registration
// order. Ported from src/book/plugins/*.h.
package plugins

import "fenrir/internal/book"

// SelfTradePolicy cancels a prospective cross when the taker and
// maker share a user id, per each side's StpPolicy bitmask. Grounded
// on src/book/plugins/self_trade_policy.h.
type SelfTradePolicy struct {
	book.BaseHooks
}

func (SelfTradePolicy) ShouldTrade(_ *book.OrderBook, taker, maker *book.Tracker) (book.CancelReason, book.CancelReason) {
	if taker.UserID() != maker.UserID() {
		return book.DontCancel, book.DontCancel
	}

	combined := taker.Stp() | maker.Stp()

	takerReason, makerReason := book.DontCancel, book.DontCancel
	if combined&book.StpCancelTaker != 0 {
		takerReason = book.SelfTrade
	}
	if combined&book.StpCancelMaker != 0 {
		makerReason = book.SelfTrade
	}
	return takerReason, makerReason
}
