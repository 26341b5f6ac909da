package book

import "github.com/tidwall/btree"

// priceLevel is one key's worth of resting trackers, held in insertion
// (time-priority) order. Mirrors the teacher's PriceLevel/PriceLevels
// pattern (internal/engine/orderbook.go), generalized from a single
// btree per book to the bid/ask pair the core needs.
type priceLevel struct {
	key    BookPrice
	orders []*Tracker
}

// sideBook is one side (bids or asks) of the order book: an ordered
// multi-map keyed by BookPrice, backed by github.com/tidwall/btree so
// the best price is always a Min() away (spec.md §3).
type sideBook struct {
	isBid bool
	tree  *btree.BTreeG[*priceLevel]
}

func newSideBook(isBid bool) *sideBook {
	less := func(a, b *priceLevel) bool {
		return a.key.LessKey(b.key)
	}
	return &sideBook{isBid: isBid, tree: btree.NewBTreeG(less)}
}

// best returns the top-of-book level for this side, if any.
func (s *sideBook) best() (*priceLevel, bool) {
	return s.tree.MinMut()
}

// get finds the level at an exact price, if one is resting.
func (s *sideBook) get(price float64) (*priceLevel, bool) {
	probe := &priceLevel{key: NewBookPrice(s.isBid, price)}
	return s.tree.GetMut(probe)
}

// getOrCreate finds or inserts the level at an exact price.
func (s *sideBook) getOrCreate(price float64) *priceLevel {
	if level, ok := s.get(price); ok {
		return level
	}
	level := &priceLevel{key: NewBookPrice(s.isBid, price)}
	s.tree.Set(level)
	return level
}

func (s *sideBook) delete(level *priceLevel) {
	s.tree.Delete(level)
}

func (s *sideBook) len() int {
	return s.tree.Len()
}

// ascend walks levels from best to worst, stopping early if iter
// returns false.
func (s *sideBook) ascend(iter func(level *priceLevel) bool) {
	s.tree.Scan(iter)
}

// findIndex locates a tracker by order id within a level (time
// priority means orders are scanned in insertion order, same as the
// C++ multimap iteration at one key).
func findIndex(level *priceLevel, id OrderID) int {
	for i, t := range level.orders {
		if t.OrderID().Equal(id) {
			return i
		}
	}
	return -1
}

// removeIndex removes the tracker at idx from level, deleting the
// level from side if it becomes empty.
func removeIndex(side *sideBook, level *priceLevel, idx int) {
	level.orders = append(level.orders[:idx], level.orders[idx+1:]...)
	if len(level.orders) == 0 {
		side.delete(level)
	}
}

// removeTracker removes a specific tracker from a level by identity,
// used when the matching loop already holds the tracker pointer.
func removeTracker(side *sideBook, level *priceLevel, tracker *Tracker) {
	if idx := findIndex(level, tracker.OrderID()); idx >= 0 {
		removeIndex(side, level, idx)
	}
}
