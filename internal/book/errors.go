package book

import "errors"

// Protocol faults (spec.md §7.2): these should never occur against a
// conforming hook set. They are hard internal invariants, not
// user-facing rejections, so they surface as Go errors rather than
// callback records.
var (
	ErrOverFill          = errors.New("book: fill exceeds tracker qty or funds")
	ErrSkipFillPending   = errors.New("book: skip_fill already pending for this side")
	ErrDepthCloseEmpty   = errors.New("book: close_order on a depth level with no resting orders")
	ErrDepthQtyUnderflow = errors.New("book: close_order qty exceeds depth level's aggregate qty")
)
