package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
	"fenrir/internal/book/plugins"
)

// recordingHandler stands in for the external venue: it remembers
// every request it was handed so a test can resolve it later, on its
// own schedule, the way an asynchronous gateway response would arrive.
type recordingHandler struct {
	requests []plugins.RoutingRequest
}

func (h *recordingHandler) OnRoutingRequest(req plugins.RoutingRequest) {
	h.requests = append(h.requests, req)
}

func TestRoutableDivertsMatchAgainstMarketMaker(t *testing.T) {
	sink, cbs := collectingSink()
	handler := &recordingHandler{}
	routable := plugins.NewRoutable(handler)
	ob := book.NewOrderBook(1, sink, routable)

	const mmUser = uint64(100)
	const exchangeID = uint32(2)
	routable.RegisterMarketMaker(mmUser, exchangeID)

	ob.Add(limit(mmUser, false, 1000, 1))

	// The taker wants more than the MM leg can fill, so a leftover
	// rests briefly before the route's temporary cancel sweeps it too.
	*cbs = nil
	matched := ob.Add(limit(1, true, 1000, 2))

	require.Len(t, handler.requests, 1)
	req := handler.requests[0]
	assert.Equal(t, exchangeID, req.ExchangeID)
	assert.Equal(t, float64(1), req.Qty)
	assert.Equal(t, float64(1000), req.Price)

	assert.True(t, matched)

	trades := callbacksOfType(*cbs, book.CbTrade)
	require.Len(t, trades, 1)
	assert.Equal(t, book.ScopeInternalOnly, trades[0].Scope)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 1)
	assert.Equal(t, uint8(book.TemporaryCancel), cancels[0].Reason)
	assert.Equal(t, book.ScopeSuppress, cancels[0].Scope)

	// Nothing is left resting: the leftover was pulled back off the
	// book pending the route, not parked as a live order.
	_, hasBid := ob.BestBid()
	assert.False(t, hasBid)
}

func TestRoutableSuccessReplaysCallbacksExternalOnly(t *testing.T) {
	sink, cbs := collectingSink()
	handler := &recordingHandler{}
	routable := plugins.NewRoutable(handler)
	ob := book.NewOrderBook(1, sink, routable)

	const mmUser = uint64(100)
	routable.RegisterMarketMaker(mmUser, 2)

	ob.Add(limit(mmUser, false, 1000, 1))

	*cbs = nil
	ob.Add(limit(1, true, 1000, 1))
	require.Len(t, handler.requests, 1)
	requestID := handler.requests[0].RequestID

	*cbs = nil
	routable.OnRoutingSuccess(ob, requestID)

	trades := callbacksOfType(*cbs, book.CbTrade)
	require.Len(t, trades, 1)
	assert.Equal(t, book.ScopeExternalOnly, trades[0].Scope)

	// The taker fully filled on the routed leg, so nothing re-enters
	// the book as a continuation.
	_, hasBid := ob.BestBid()
	assert.False(t, hasBid)
}

func TestRoutableSuccessResubmitsResidualQty(t *testing.T) {
	sink, cbs := collectingSink()
	handler := &recordingHandler{}
	routable := plugins.NewRoutable(handler)
	ob := book.NewOrderBook(1, sink, routable)

	const mmUser = uint64(100)
	routable.RegisterMarketMaker(mmUser, 2)

	// MM offers only 1 of the 3 the taker wants; the remainder has
	// nothing left to trade against and should rest once the routed
	// leg resolves.
	ob.Add(limit(mmUser, false, 1000, 1))

	*cbs = nil
	ob.Add(limit(1, true, 1000, 3))
	require.Len(t, handler.requests, 1)
	requestID := handler.requests[0].RequestID

	routable.OnRoutingSuccess(ob, requestID)

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, float64(1000), best)
	levels := ob.Levels(true)
	require.Len(t, levels, 1)
	assert.Equal(t, float64(2), levels[0].AggregateQty)
}

func TestRoutableFailureCancelsTakerAndSkipsFailedTrade(t *testing.T) {
	sink, cbs := collectingSink()
	handler := &recordingHandler{}
	routable := plugins.NewRoutable(handler)
	ob := book.NewOrderBook(1, sink, routable)

	const mmUser = uint64(100)
	routable.RegisterMarketMaker(mmUser, 2)

	ob.Add(limit(mmUser, false, 1000, 1))

	// Taker fully matches the MM leg with nothing left to rest, so the
	// failure path has a single unambiguous qty to account for.
	*cbs = nil
	ob.Add(limit(1, true, 1000, 1))
	require.Len(t, handler.requests, 1)
	req := handler.requests[0]

	*cbs = nil
	routable.OnRoutingFailure(ob, req.RequestID)

	// The failed MM leg must not be replayed as a trade.
	trades := callbacksOfType(*cbs, book.CbTrade)
	assert.Empty(t, trades)

	cancels := callbacksOfType(*cbs, book.CbCancel)
	require.Len(t, cancels, 1)
	assert.Equal(t, uint8(book.RoutingFailure), cancels[0].Reason)
	assert.Equal(t, book.ScopeExternalOnly, cancels[0].Scope)
	assert.Equal(t, req.Qty, cancels[0].Generic1)
}

func TestRoutableSkipsNonMMMakersUntouched(t *testing.T) {
	sink, cbs := collectingSink()
	handler := &recordingHandler{}
	routable := plugins.NewRoutable(handler)
	ob := book.NewOrderBook(1, sink, routable)

	ob.Add(limit(2, false, 1000, 1))

	*cbs = nil
	matched := ob.Add(limit(1, true, 1000, 1))

	assert.True(t, matched)
	assert.Empty(t, handler.requests)

	trades := callbacksOfType(*cbs, book.CbTrade)
	require.Len(t, trades, 1)
	assert.Equal(t, book.ScopeBroadcastAll, trades[0].Scope)
}
