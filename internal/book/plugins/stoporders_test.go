package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
	"fenrir/internal/book/plugins"
)

func TestStopOrderParksUntriggeredThenReleasesOnCross(t *testing.T) {
	sink, cbs := collectingSink()
	stopOrders := plugins.NewStopOrders()
	ob := book.NewOrderBook(1, sink, stopOrders)

	// A buy stop above the current (zero) market price parks off-book
	// rather than resting or matching.
	stop := limit(1, true, 0, 5)
	stop.StopPrice = 105
	ob.Add(stop)

	_, ok := ob.BestBid()
	assert.False(t, ok, "a parked stop must not appear on the live book")
	assert.Len(t, callbacksOfType(*cbs, book.CbAccept), 1)

	// Resting asks the stop will sweep once released, plus a trade
	// that drags the market price up through 105.
	ob.Add(limit(2, false, 104, 2))
	ob.Add(limit(2, false, 106, 10))

	*cbs = nil
	ob.Add(limit(3, true, 106, 3))

	assert.Equal(t, float64(106), ob.MarketPrice())

	triggers := callbacksOfType(*cbs, book.CbStopTrigger)
	require.Len(t, triggers, 1)
	assert.Equal(t, stop.OrderID, triggers[0].Order.OrderID)

	// The released stop (now a market buy) should have swept into the
	// remaining resting ask liquidity.
	fills := callbacksOfType(*cbs, book.CbTrade)
	require.NotEmpty(t, fills)
}

func TestStopOrderAlreadyTriggeredSkipsParking(t *testing.T) {
	sink, cbs := collectingSink()
	stopOrders := plugins.NewStopOrders()
	ob := book.NewOrderBook(1, sink, stopOrders)

	ob.Add(limit(1, false, 100, 5))
	ob.Add(limit(2, true, 100, 5)) // drags market price to 100

	*cbs = nil
	ob.Add(limit(3, false, 101, 5))

	// A sell stop at or above the current market price has already
	// triggered: it should flow straight through as an ordinary order.
	stop := limit(4, false, 99, 2)
	stop.StopPrice = 101
	ob.Add(stop)

	assert.Empty(t, callbacksOfType(*cbs, book.CbStopTrigger))
	require.NotEmpty(t, callbacksOfType(*cbs, book.CbAccept))
	best, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, float64(99), best)
}
