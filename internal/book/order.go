package book

// Order is the externally-owned, immutable-to-the-book input. The book
// never mutates it; it holds a shared reference while the order rests
// and releases it on full fill or cancel (spec.md §3).
//
// Invariant: at most one of (Qty, Funds) is zero; at least one is
// nonzero. Price == 0 denotes a market order.
type Order struct {
	OrderID OrderID
	UserID  uint64
	IsBid   bool
	Price   float64
	Qty     float64
	Funds   float64

	// Policy-specific attributes. Zero values are inert for plugins
	// that are not loaded into a given OrderBook. The exception is Stp:
	// its zero value is not "no policy" (the enum has no such member) —
	// NewTracker defaults it to StpCancelTaker.
	Stp        StpPolicy
	PostOnly   bool
	ReduceOnly bool
	StopPrice  float64
}
