package book

import "math"

// Tracker is the per-order lifecycle state the book owns once an Order
// is accepted: remaining qty, funds consumed, and average price, plus
// whatever plugin-specific attributes were carried on the originating
// Order. Ported from src/book/tracker.h; the plugin fields are folded
// in directly rather than composed through mixins.
type Tracker struct {
	order Order

	isBid bool
	price float64
	qty   float64
	funds float64

	filledQty  float64
	filledCost float64
	avgPrice   float64

	// Plugin-carried attributes, copied out of Order at acceptance so
	// trackers remain independent of the Order's own lifetime.
	userID     uint64
	stp        StpPolicy
	postOnly   bool
	reduceOnly bool
	stopPrice  float64
}

// NewTracker derives a Tracker from an accepted Order. An order that
// carries no Stp policy defaults to StpCancelTaker, matching the
// corpus fixtures' default (there is no "none" member of the policy
// enum — every order is under some self-trade policy).
func NewTracker(order Order) *Tracker {
	stp := order.Stp
	if stp == 0 {
		stp = StpCancelTaker
	}
	return &Tracker{
		order:      order,
		isBid:      order.IsBid,
		price:      order.Price,
		qty:        order.Qty,
		funds:      order.Funds,
		userID:     order.UserID,
		stp:        stp,
		postOnly:   order.PostOnly,
		reduceOnly: order.ReduceOnly,
		stopPrice:  order.StopPrice,
	}
}

func (t *Tracker) Order() Order         { return t.order }
func (t *Tracker) OrderPtr() *Order     { return &t.order }
func (t *Tracker) OrderID() OrderID     { return t.order.OrderID }
func (t *Tracker) IsBid() bool          { return t.isBid }
func (t *Tracker) Price() float64       { return t.price }
func (t *Tracker) Qty() float64         { return t.qty }
func (t *Tracker) Funds() float64       { return t.funds }
func (t *Tracker) FilledQty() float64   { return t.filledQty }
func (t *Tracker) FilledCost() float64  { return t.filledCost }
func (t *Tracker) AvgPrice() float64    { return t.avgPrice }
func (t *Tracker) UserID() uint64       { return t.userID }
func (t *Tracker) Stp() StpPolicy       { return t.stp }
func (t *Tracker) PostOnly() bool       { return t.postOnly }
func (t *Tracker) ReduceOnly() bool     { return t.reduceOnly }
func (t *Tracker) StopPrice() float64   { return t.stopPrice }

// Fill records a trade against this tracker, updating the volume
// weighted average price. Returns ErrOverFill if the fill would push
// filled_cost past funds or filled_qty past qty — a protocol fault
// that should never happen against a conforming matching loop.
func (t *Tracker) Fill(fillQty, fillCost float64) error {
	if t.funds != 0 && fillCost+t.filledCost > t.funds {
		return ErrOverFill
	}
	if t.qty != 0 && fillQty+t.filledQty > t.qty {
		return ErrOverFill
	}

	t.avgPrice = (t.avgPrice*t.filledQty + fillCost) / (t.filledQty + fillQty)
	t.filledCost += fillCost
	t.filledQty += fillQty
	return nil
}

// Filled reports whether the tracker has consumed its qty or funds
// down to (or below) the quantization thresholds.
func (t *Tracker) Filled() bool {
	if t.funds != 0 {
		return (t.funds - t.filledCost) < MinOrderFunds
	}
	return (t.qty - t.filledQty) < MinOrderQty
}

// QtyOnBook is the resting qty shown to the depth projection: zero for
// market orders (which never rest), else the unfilled qty.
func (t *Tracker) QtyOnBook() float64 {
	if t.price == 0 {
		return 0
	}
	return t.qty - t.filledQty
}

// OpenQty is the unfilled qty for a qty-bound order.
func (t *Tracker) OpenQty() float64 {
	return t.qty - t.filledQty
}

// TradableQty returns the quantity this tracker can trade at price p,
// limited by remaining qty, remaining funds (rounded down to
// TradeQtyIncrement), or both.
func (t *Tracker) TradableQty(price float64) float64 {
	if t.funds == 0 {
		return t.qty - t.filledQty
	}

	fundsQty := math.Floor((t.funds-t.filledCost)/price/TradeQtyIncrement) * TradeQtyIncrement

	if t.qty == 0 {
		return fundsQty
	}

	return math.Min(t.qty-t.filledQty, fundsQty)
}

// ChangeOpenQty adjusts qty by delta; the precondition is delta >= 0 or
// -delta <= qty - filled_qty, enforced by callers (replace() clamps
// delta before calling this).
func (t *Tracker) ChangeOpenQty(delta float64) {
	t.qty += delta
}
