package repositories

import "errors"

// Repository errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrBankNotFound       = errors.New("bank account not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrListingNotFound    = errors.New("listing not found")
	ErrInventoryShort     = errors.New("insufficient inventory")
)
