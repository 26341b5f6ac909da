package book

// BookPrice is the ordering abstraction for one side of the book: it
// reverses the natural order for bids (best bid is the highest price)
// and treats price == 0 as "market", the extreme value on either side.
// Ported from src/book/book_price.h.
type BookPrice struct {
	isBid bool
	price float64
}

func NewBookPrice(isBid bool, price float64) BookPrice {
	return BookPrice{isBid: isBid, price: price}
}

func (k BookPrice) Price() float64 { return k.price }
func (k BookPrice) IsBid() bool    { return k.isBid }
func (k BookPrice) IsMarket() bool { return k.price == 0 }

// Matches is the crossing predicate used by the matching loop: true
// when p equals the key's price, or when the key would trade against
// p (a bid matches any ask at or below it; an ask matches any bid at
// or above it), with 0 standing in for "no limit" on either side.
func (k BookPrice) Matches(p float64) bool {
	if p == k.price {
		return true
	}
	if k.isBid {
		return p < k.price || p == 0
	}
	return k.price < p || p == 0
}

// Less implements key < p (a strict order with 0 as the extreme value
// on the key's own side).
func (k BookPrice) Less(p float64) bool {
	if k.price == 0 {
		return p != 0
	}
	if p == 0 {
		return false
	}
	if k.isBid {
		return p < k.price
	}
	return k.price < p
}

func (k BookPrice) Equal(p float64) bool {
	return k.price == p
}

func (k BookPrice) Greater(p float64) bool {
	if k.price == 0 {
		return false
	}
	if p == 0 {
		return true
	}
	if k.isBid {
		return p > k.price
	}
	return k.price > p
}

func (k BookPrice) LessEq(p float64) bool    { return k.Less(p) || k.Equal(p) }
func (k BookPrice) GreaterEq(p float64) bool { return k.Greater(p) || k.Equal(p) }

// LessKey orders two keys on the same side (used as the btree.BTreeG
// comparator for the side containers).
func (k BookPrice) LessKey(rhs BookPrice) bool {
	return k.Less(rhs.price)
}
