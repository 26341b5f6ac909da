package book_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
	"fenrir/internal/book/plugins"
)

// --- Setup & helpers ---------------------------------------------------

var nextID uint64

func mintID() book.OrderID {
	nextID++
	return book.NewOrderID(0, nextID)
}

func collectingSink() (func([]book.Callback), *[]book.Callback) {
	var all []book.Callback
	return func(cbs []book.Callback) { all = append(all, cbs...) }, &all
}

func newLimit(userID uint64, isBid bool, price, qty float64) book.Order {
	return book.Order{OrderID: mintID(), UserID: userID, IsBid: isBid, Price: price, Qty: qty}
}

func newMarket(userID uint64, isBid bool, qty float64) book.Order {
	return book.Order{OrderID: mintID(), UserID: userID, IsBid: isBid, Qty: qty}
}

func callbacksOfType(cbs []book.Callback, t book.CbType) []book.Callback {
	var out []book.Callback
	for _, cb := range cbs {
		if cb.Type == t {
			out = append(out, cb)
		}
	}
	return out
}

// --- S1: empty-book market sell cancels for lack of liquidity ----------

func TestMarketOrderAgainstEmptyBookCancelsNoLiquidity(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	matched := ob.Add(newMarket(1, false, 5))

	assert.False(t, matched)
	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 1)
	assert.Equal(t, uint8(book.NoLiquidity), cancels[0].Reason)
}

// --- S2: market sell sweeps three resting bids --------------------------

func TestMarketSellSweepsMultipleBidLevels(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	ob.Add(newLimit(1, true, 101, 2))
	ob.Add(newLimit(1, true, 100, 2))
	ob.Add(newLimit(1, true, 99, 2))

	*cbs = nil
	matched := ob.Add(newMarket(2, false, 5))
	require.True(t, matched)

	fills := callbacksOfType(*cbs, book.CbTrade)
	require.Len(t, fills, 3)
	assert.Equal(t, float64(101), fills[0].Price)
	assert.Equal(t, float64(100), fills[1].Price)
	assert.Equal(t, float64(99), fills[2].Price)
	assert.Equal(t, float64(2), fills[0].Qty)
	assert.Equal(t, float64(2), fills[1].Qty)
	assert.Equal(t, float64(1), fills[2].Qty)

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, float64(99), best)

	levels := ob.Levels(true)
	require.Len(t, levels, 1)
	assert.Equal(t, float64(1), levels[0].AggregateQty)
}

// --- Price-time priority within a level ---------------------------------

func TestTimePriorityWithinALevel(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	first := newLimit(1, true, 100, 2)
	second := newLimit(2, true, 100, 2)
	ob.Add(first)
	ob.Add(second)

	*cbs = nil
	ob.Add(newMarket(3, false, 2))

	fills := callbacksOfType(*cbs, book.CbTrade)
	require.Len(t, fills, 1)
	assert.Equal(t, first.OrderID, fills[0].MakerOrder.OrderID)
}

// --- Self-trade prevention ------------------------------------------------

func TestSelfTradePolicyCancelsMaker(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink, &plugins.SelfTradePolicy{})

	maker := newLimit(1, true, 100, 5)
	maker.Stp = book.StpCancelMaker
	ob.Add(maker)

	*cbs = nil
	taker := newMarket(1, false, 5)
	taker.Stp = book.StpCancelMaker
	ob.Add(taker)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 2)
	assert.Equal(t, uint8(book.SelfTrade), cancels[0].Reason)
	assert.Empty(t, callbacksOfType(*cbs, book.CbTrade))
}

// --- S4: self-trade cancel-maker on crossed limit defaults the resting
// order's own (unset) policy to cancel-taker, so a maker-only stp on
// the incoming order still cancels both sides. ------------------------

func TestSelfTradeDefaultPolicyCancelsBothSides(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink, &plugins.SelfTradePolicy{})

	ob.Add(newLimit(1, true, 1000, 1))

	*cbs = nil
	taker := newLimit(1, false, 1000, 1)
	taker.Stp = book.StpCancelMaker
	ob.Add(taker)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 2)
	assert.Equal(t, uint8(book.SelfTrade), cancels[0].Reason)
	assert.Equal(t, uint8(book.SelfTrade), cancels[1].Reason)
	assert.Empty(t, callbacksOfType(*cbs, book.CbTrade))

	_, hasBid := ob.BestBid()
	assert.False(t, hasBid)
	_, hasAsk := ob.BestAsk()
	assert.False(t, hasAsk)
}

// --- Post-only ------------------------------------------------------------

func TestPostOnlyCancelsCrossingTaker(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink, &plugins.PostOnly{})

	ob.Add(newLimit(1, false, 100, 5))

	*cbs = nil
	taker := newLimit(2, true, 100, 5)
	taker.PostOnly = true
	ob.Add(taker)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 1)
	assert.Equal(t, uint8(book.PostOnly), cancels[0].Reason)
	assert.Empty(t, callbacksOfType(*cbs, book.CbTrade))
	_, ok := ob.BestAsk()
	assert.True(t, ok, "resting maker should survive untouched")
}

// --- Cancel / Replace -------------------------------------------------

func TestCancelRemovesRestingOrder(t *testing.T) {
	sink, _ := collectingSink()
	ob := book.NewOrderBook(1, sink)

	order := newLimit(1, true, 100, 5)
	ob.Add(order)

	ob.Cancel(order, book.UserCancel)
	_, ok := ob.BestBid()
	assert.False(t, ok)
}

func TestCancelUnknownOrderEmitsCancelReject(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	ob.Cancel(newLimit(1, true, 100, 5), book.UserCancel)

	rejects := callbacksOfType(*cbs, book.CbCancelReject)
	require.Len(t, rejects, 1)
}

func TestReplaceShrinksRestingOrder(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	order := newLimit(1, true, 100, 5)
	ob.Add(order)

	*cbs = nil
	ob.Replace(order, -2)

	levels := ob.Levels(true)
	require.Len(t, levels, 1)
	assert.Equal(t, float64(3), levels[0].AggregateQty)
}

func TestReplaceBelowMinQtyCancelsOutright(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink)

	order := newLimit(1, true, 100, 5)
	ob.Add(order)

	*cbs = nil
	ob.Replace(order, -4.9999995)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 1)
	assert.Equal(t, uint8(book.ReplacedAllQty), cancels[0].Reason)
	_, ok := ob.BestBid()
	assert.False(t, ok)
}

// --- Reject path ------------------------------------------------------

type rejectEverything struct{ book.BaseHooks }

func (rejectEverything) ShouldAdd(*book.OrderBook, *book.Tracker) book.InsertRejectReason {
	return book.InsertRejectNoReason
}

func TestShouldAddRejectionSkipsMatching(t *testing.T) {
	sink, cbs := collectingSink()
	ob := book.NewOrderBook(1, sink, rejectEverything{})

	ob.Add(newLimit(1, true, 100, 5))

	rejects := callbacksOfType(*cbs, book.CbReject)
	require.Len(t, rejects, 1)
	assert.Empty(t, callbacksOfType(*cbs, book.CbAccept))
	_, ok := ob.BestBid()
	assert.False(t, ok)
}

// --- Market price tracking ----------------------------------------------

func TestMarketPriceUpdatesOnTrade(t *testing.T) {
	sink, _ := collectingSink()
	ob := book.NewOrderBook(1, sink)

	ob.Add(newLimit(1, true, 100, 5))
	assert.Equal(t, float64(0), ob.MarketPrice())

	ob.Add(newMarket(2, false, 5))
	assert.Equal(t, float64(100), ob.MarketPrice())
}
