package plugins

import "fenrir/internal/book"

// PostOnly cancels the taker side of a prospective cross whenever the
// incoming order was flagged post-only — it is only ever allowed to
// rest, never to take liquidity. Grounded on
// src/book/plugins/post_only.h.
type PostOnly struct {
	book.BaseHooks
}

func (PostOnly) ShouldTrade(_ *book.OrderBook, taker, _ *book.Tracker) (book.CancelReason, book.CancelReason) {
	if taker.PostOnly() {
		return book.PostOnly, book.DontCancel
	}
	return book.DontCancel, book.DontCancel
}
