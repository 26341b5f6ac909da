package book

import "fmt"

// Callback is a tagged record describing one observable event. The
// scope field replaces any notion of a callback class hierarchy:
// routing decisions are taken by rewriting the scope on records
// already in the batch (spec.md §4.11, §9). Ported from
// src/book/callback.h.
type Callback struct {
	Type CbType

	Order      *Order
	MakerOrder *Order

	Qty      float64
	Price    float64
	AvgPrice float64

	// Generic numeric slots reused across callback kinds; see each
	// constructor below for what they carry.
	Generic1 float64
	Generic2 float64
	Generic3 float64

	UserID uint64
	Reason uint8
	Flags  FillFlags
	Scope  CallbackScope
}

func (c Callback) String() string {
	switch c.Type {
	case CbTrade:
		return fmt.Sprintf("[TRADE] %v @ %v", c.Qty, c.Price)
	case CbCancel:
		return fmt.Sprintf("[CANCEL] reason=%v order=%v [%v]", CancelReason(c.Reason), orderID(c.Order), c.Scope)
	default:
		return fmt.Sprintf("[%v] [%v]", c.Type, c.Scope)
	}
}

func orderID(o *Order) string {
	if o == nil {
		return "<nil>"
	}
	return o.OrderID.String()
}

func cbAccept(order *Order) Callback {
	return Callback{Type: CbAccept, Order: order, Scope: ScopeBroadcastAll}
}

func cbReject(order *Order, reason InsertRejectReason) Callback {
	return Callback{
		Type:   CbReject,
		Order:  order,
		Reason: uint8(reason),
		Scope:  ScopeBroadcastAll,
	}
}

func cbFill(taker, maker *Order, fillQty, price, takerAvg, makerAvg, takerTotal, makerTotal float64, flags FillFlags) Callback {
	return Callback{
		Type:       CbTrade,
		Order:      taker,
		MakerOrder: maker,
		Qty:        fillQty,
		Price:      price,
		AvgPrice:   takerAvg,
		Generic1:   makerAvg,
		Generic2:   takerTotal,
		Generic3:   makerTotal,
		Flags:      flags,
		Scope:      ScopeBroadcastAll,
	}
}

func cbCancel(order *Order, qtyOnBook, filledQty, avgPrice float64, reason CancelReason) Callback {
	return Callback{
		Type:     CbCancel,
		Order:    order,
		Qty:      filledQty,
		AvgPrice: avgPrice,
		Generic1: qtyOnBook,
		Reason:   uint8(reason),
		Scope:    ScopeBroadcastAll,
	}
}

func cbReplace(order *Order, effectiveDelta, qtyOnBook, filledQty, avgPrice float64) Callback {
	return Callback{
		Type:     CbReplace,
		Order:    order,
		Generic1: effectiveDelta,
		Generic2: qtyOnBook,
		Qty:      filledQty,
		AvgPrice: avgPrice,
		Scope:    ScopeBroadcastAll,
	}
}

func cbCancelReject(order *Order, filledQty, avgPrice float64, reason CancelRejectReason) Callback {
	return Callback{
		Type:     CbCancelReject,
		Order:    order,
		Qty:      filledQty,
		AvgPrice: avgPrice,
		Reason:   uint8(reason),
		Scope:    ScopeBroadcastAll,
	}
}

func cbReplaceReject(order *Order, filledQty, avgPrice float64, reason ReplaceRejectReason) Callback {
	return Callback{
		Type:     CbReplaceReject,
		Order:    order,
		Qty:      filledQty,
		AvgPrice: avgPrice,
		Reason:   uint8(reason),
		Scope:    ScopeBroadcastAll,
	}
}

func cbBookUpdate() Callback {
	return Callback{Type: CbBookUpdate, Scope: ScopeBroadcastAll}
}

func cbPositionOpen(userID uint64, qty, basePrice float64) Callback {
	return Callback{
		Type:     CbPositionOpen,
		UserID:   userID,
		Qty:      qty,
		AvgPrice: basePrice,
		Scope:    ScopeBroadcastAll,
	}
}

func cbPositionUpdate(userID uint64, qty, basePrice float64) Callback {
	return Callback{
		Type:     CbPositionUpdate,
		UserID:   userID,
		Qty:      qty,
		AvgPrice: basePrice,
		Scope:    ScopeBroadcastAll,
	}
}

func cbPositionClose(userID uint64) Callback {
	return Callback{Type: CbPositionClose, UserID: userID, Scope: ScopeBroadcastAll}
}

func cbStopTrigger(order *Order) Callback {
	return Callback{Type: CbStopTrigger, Order: order, Scope: ScopeBroadcastAll}
}

// The constructors below are the plugin-facing names: plugins live in
// a separate package and only ever need to build the callback kinds
// that originate outside the core matching loop itself.

func AcceptCallback(order *Order) Callback {
	return cbAccept(order)
}

func CancelCallback(order *Order, qtyOnBook, filledQty, avgPrice float64, reason CancelReason) Callback {
	return cbCancel(order, qtyOnBook, filledQty, avgPrice, reason)
}

func PositionOpenCallback(userID uint64, qty, basePrice float64) Callback {
	return cbPositionOpen(userID, qty, basePrice)
}

func PositionUpdateCallback(userID uint64, qty, basePrice float64) Callback {
	return cbPositionUpdate(userID, qty, basePrice)
}

func PositionCloseCallback(userID uint64) Callback {
	return cbPositionClose(userID)
}

func StopTriggerCallback(order *Order) Callback {
	return cbStopTrigger(order)
}
