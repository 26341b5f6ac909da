package book

// InsertRejectReason enumerates why add() rejected an incoming order.
// Wire-stable integer codes, ported from src/book/types.h.
type InsertRejectReason uint8

const (
	DontReject InsertRejectReason = iota
	InsertRejectNoReason
	ReduceOnlyIncrease
	ReduceOnlyReverse
	InsufficientFunds
	QtyTooSmall
	FundsTooSmall
	DuplicateClientOrderID
)

func (r InsertRejectReason) String() string {
	switch r {
	case DontReject:
		return "dont_reject"
	case InsertRejectNoReason:
		return "no_reason"
	case ReduceOnlyIncrease:
		return "reduce_only_increase"
	case ReduceOnlyReverse:
		return "reduce_only_reverse"
	case InsufficientFunds:
		return "insufficient_funds"
	case QtyTooSmall:
		return "qty_too_small"
	case FundsTooSmall:
		return "funds_too_small"
	case DuplicateClientOrderID:
		return "duplicate_client_order_id"
	default:
		return "unknown_insert_reject_reason"
	}
}

// CancelReason enumerates why a tracker was removed from the book.
type CancelReason uint8

const (
	DontCancel CancelReason = iota
	UserCancel
	TemporaryCancel
	NoLiquidity
	SelfTrade
	EngineShutdown
	ReplacedAllQty
	PostOnly
	ReduceOnlyMatch
	ReduceOnlyClose
	MMRouted
	RoutingFailure
)

func (r CancelReason) String() string {
	switch r {
	case DontCancel:
		return "dont_cancel"
	case UserCancel:
		return "user_cancel"
	case TemporaryCancel:
		return "temporary_cancel"
	case NoLiquidity:
		return "no_liquidity"
	case SelfTrade:
		return "self_trade"
	case EngineShutdown:
		return "engine_shutdown"
	case ReplacedAllQty:
		return "replaced_all_qty"
	case PostOnly:
		return "post_only"
	case ReduceOnlyMatch:
		return "reduce_only_match"
	case ReduceOnlyClose:
		return "reduce_only_close"
	case MMRouted:
		return "mm_routed"
	case RoutingFailure:
		return "routing_failure"
	default:
		return "unknown_cancel_reason"
	}
}

// CancelRejectReason enumerates why a cancel() could not find an order.
type CancelRejectReason uint8

const (
	DontCancelReject CancelRejectReason = iota
	CancelRejectNotFound
)

// ReplaceRejectReason enumerates why a replace() request was rejected.
type ReplaceRejectReason uint8

const (
	DontReplaceReject ReplaceRejectReason = iota
	ReplaceRejectNotFound
	ReplaceRejectNoQty
	ReplaceInsufficientFunds
)

// CallbackScope routes a callback record to the downstream consumers
// that should see it: suppress means nobody, broadcast means everyone.
// The Routable plugin rewrites scopes on records already in the batch
// (spec.md §4.11); there is no callback class hierarchy.
type CallbackScope uint8

const (
	ScopeSuppress CallbackScope = iota
	ScopeInternalOnly
	ScopeExternalOnly
	ScopeBroadcastAll
)

func (s CallbackScope) String() string {
	switch s {
	case ScopeSuppress:
		return "suppress"
	case ScopeInternalOnly:
		return "internal_only"
	case ScopeExternalOnly:
		return "external_only"
	case ScopeBroadcastAll:
		return "broadcast_all"
	default:
		return "unknown_scope"
	}
}

// FillFlags marks which side(s) of a trade became fully filled.
type FillFlags uint8

const (
	NeitherFilled FillFlags = 0
	TakerFilled   FillFlags = 1
	MakerFilled   FillFlags = 2
	BothFilled    FillFlags = 3
)

// StpPolicy is the bitmask self-trade-prevention policy carried by a
// tracker, ported from plugins/self_trade_policy.h.
type StpPolicy uint8

const (
	StpCancelTaker StpPolicy = 1 << iota
	StpCancelMaker
)

const StpCancelBoth = StpCancelTaker | StpCancelMaker

// CbType discriminates the kind of event a Callback describes.
type CbType uint8

const (
	CbUnknown CbType = iota
	CbAccept
	CbReject
	CbCancel
	CbCancelReject
	CbReplace
	CbReplaceReject
	CbFill
	CbBookUpdate
	CbTrade
	CbPositionOpen
	CbPositionUpdate
	CbPositionClose
	CbStopTrigger
)

func (t CbType) String() string {
	switch t {
	case CbAccept:
		return "accept"
	case CbReject:
		return "reject"
	case CbCancel:
		return "cancel"
	case CbCancelReject:
		return "cancel_reject"
	case CbReplace:
		return "replace"
	case CbReplaceReject:
		return "replace_reject"
	case CbFill:
		return "fill"
	case CbBookUpdate:
		return "book_update"
	case CbTrade:
		return "trade"
	case CbPositionOpen:
		return "position_open"
	case CbPositionUpdate:
		return "position_update"
	case CbPositionClose:
		return "position_close"
	case CbStopTrigger:
		return "stop_trigger"
	default:
		return "unknown"
	}
}
