package settlement

import (
	"context"

	"casino/internal/models"
)

// AccountKind selects which balance of a user an entry targets.
type AccountKind string

const (
	KindWallet AccountKind = "wallet"
	KindBank   AccountKind = "bank"
)

// AccountRef identifies one balance row. ID is the wallet or bank row id
// depending on Kind.
type AccountRef struct {
	Kind AccountKind
	ID   uint
}

// Entry is one signed balance mutation plus its log row. Negative amounts
// are debits and carry a required-funds precondition on the account.
type Entry struct {
	Account  AccountRef
	WalletID uint // owner's wallet, used for the log row
	Type     string
	Amount   int64
	Metadata models.JSON
	Earned   bool
}

// ItemMove transfers shop-item quantity between inventories. A nil FromUserID
// releases quantity held in escrow; a nil ToUserID burns it.
type ItemMove struct {
	FromUserID *uint
	ToUserID   *uint
	ShopItemID string
	Amount     int64
}

// Request is one all-or-nothing money movement: every feature that moves
// currency expresses itself as exactly one Request.
type Request struct {
	TenantID  string
	Reference string
	Entries   []Entry
	Items     []ItemMove
}

// Result reports the committed reference and the resulting balances of every
// touched account.
type Result struct {
	Reference string
	Balances  map[AccountRef]int64
}

// Store exposes the single-row primitives any storage backend must provide.
// DebitIfSufficient is the one hard requirement: an atomic conditional
// decrement that fails without writing when funds are short.
type Store interface {
	// SupportsGrouping reports whether InGroup can commit multiple records
	// as one unit on this backend.
	SupportsGrouping() bool

	// InGroup runs fn against a store whose writes commit together or not at
	// all. Returns ErrGroupingUnavailable when the backend cannot group.
	InGroup(ctx context.Context, fn func(Store) error) error

	// DebitIfSufficient atomically decrements an account balance only if
	// balance >= amount. Returns ErrInsufficientFunds, ErrAccountNotFound or
	// ErrConcurrentModification without writing on failure.
	DebitIfSufficient(ctx context.Context, ref AccountRef, amount int64) error

	// Credit unconditionally increments an account balance.
	Credit(ctx context.Context, ref AccountRef, amount int64) error

	// AppendTransactions inserts log rows.
	AppendTransactions(ctx context.Context, txns []models.Transaction) error

	// MoveItems applies inventory moves; removing more than a holder owns
	// fails with ErrItemNoLongerAvailable.
	MoveItems(ctx context.Context, tenantID string, moves []ItemMove) error

	// Balances reads the current balance of each ref.
	Balances(ctx context.Context, refs []AccountRef) (map[AccountRef]int64, error)
}

// Backend commits a validated Request with all-or-nothing effect, or with the
// documented bounded fallback semantics when grouping is unavailable.
type Backend interface {
	Commit(ctx context.Context, req Request) error
}
