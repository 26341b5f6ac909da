package book

// Quantization constants, ported from src/book/constants.h. These are
// the only rounding policy the core carries (spec.md §1 Non-goals
// excludes anything beyond this).
const (
	Epsilon           = 1e-14
	MinOrderQty       = 1e-6
	MinOrderFunds     = 0.01
	TradeQtyIncrement = 1e-7

	// DefaultDepthSize is the default number of in-window levels per
	// side the depth projection keeps (internal/depth).
	DefaultDepthSize = 30
)
