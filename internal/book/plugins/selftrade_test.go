package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fenrir/internal/book"
	"fenrir/internal/book/plugins"
)

func TestSelfTradePolicyBitmaskCombinations(t *testing.T) {
	policy := plugins.SelfTradePolicy{}

	cases := []struct {
		name               string
		takerStp, makerStp book.StpPolicy
		wantTaker          book.CancelReason
		wantMaker          book.CancelReason
	}{
		// A Tracker with no Stp on its Order defaults to StpCancelTaker
		// (there is no "none" member of the policy enum), so zero on
		// both sides still cancels the taker.
		{"zero stp defaults both sides to cancel-taker", 0, 0, book.SelfTrade, book.DontCancel},
		{"explicit cancel-taker only", book.StpCancelTaker, book.StpCancelTaker, book.SelfTrade, book.DontCancel},
		{"explicit cancel-maker only", book.StpCancelMaker, book.StpCancelMaker, book.DontCancel, book.SelfTrade},
		{"cancel both via either side", book.StpCancelBoth, book.StpCancelMaker, book.SelfTrade, book.SelfTrade},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			taker := book.NewTracker(book.Order{OrderID: book.NewOrderID(0, 1), UserID: 1, IsBid: true, Stp: c.takerStp})
			maker := book.NewTracker(book.Order{OrderID: book.NewOrderID(0, 2), UserID: 1, IsBid: false, Stp: c.makerStp})

			takerReason, makerReason := policy.ShouldTrade(nil, taker, maker)
			assert.Equal(t, c.wantTaker, takerReason)
			assert.Equal(t, c.wantMaker, makerReason)
		})
	}
}

func TestSelfTradePolicyIgnoresDifferentUsers(t *testing.T) {
	policy := plugins.SelfTradePolicy{}

	taker := book.NewTracker(book.Order{OrderID: book.NewOrderID(0, 1), UserID: 1, IsBid: true, Stp: book.StpCancelBoth})
	maker := book.NewTracker(book.Order{OrderID: book.NewOrderID(0, 2), UserID: 2, IsBid: false, Stp: book.StpCancelBoth})

	takerReason, makerReason := policy.ShouldTrade(nil, taker, maker)
	assert.Equal(t, book.DontCancel, takerReason)
	assert.Equal(t, book.DontCancel, makerReason)
}
