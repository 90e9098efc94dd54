package repositories

import (
	"context"

	"casino/internal/models"
)

// AccountRepository is the data access layer for users, wallets, banks and
// the transaction log. Users and their accounts are created lazily on first
// interaction.
type AccountRepository interface {
	// GetOrCreateUser resolves a (platform, tenant) identity, creating the
	// user and a wallet seeded with initialGrant on first contact.
	GetOrCreateUser(ctx context.Context, tenantID, platformID, displayName string, initialGrant int64) (*models.User, error)

	GetUser(ctx context.Context, tenantID, platformID string) (*models.User, error)
	GetWalletByUser(ctx context.Context, userID uint) (*models.Wallet, error)

	// GetOrCreateBank lazily opens the user's bank with the tenant's cap.
	GetOrCreateBank(ctx context.Context, userID uint, tenantID string, cap int64) (*models.Bank, error)

	// AdjustCreditScore applies a clamped delta and returns the new score.
	AdjustCreditScore(ctx context.Context, userID uint, delta int) (int, error)

	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)

	// LedgerSum backs the wallet invariant:
	// balance == initial grant + LedgerSum(wallet).
	LedgerSum(ctx context.Context, walletID uint) (int64, error)
}
