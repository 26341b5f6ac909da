package book

// Symbol id packing: base/quote identifiers packed into the opaque
// uint32 symbol_id the core and the Routable plugin's RoutingRequest
// both carry. Ported from utils/symbols.h; quote is 5 bits (max 31),
// base takes the remaining bits.
const (
	quoteBits = 5
	quoteMask = 1<<quoteBits - 1
)

// PackSymbolID combines a base and quote asset id into one symbol id.
func PackSymbolID(base, quote uint32) uint32 {
	return (base << quoteBits) + (quote & quoteMask)
}

// UnpackSymbolID splits a symbol id back into its base and quote
// asset ids.
func UnpackSymbolID(symbolID uint32) (base, quote uint32) {
	return symbolID >> quoteBits, symbolID & quoteMask
}
