package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeDeposit            = "deposit"
	TransactionTypeWithdraw           = "withdraw"
	TransactionTypeTransferSent       = "transfer_sent"
	TransactionTypeTransferReceived   = "transfer_received"
	TransactionTypeBet                = "bet"
	TransactionTypePayout             = "payout"
	TransactionTypeRobWin             = "rob_win"
	TransactionTypeRobFine            = "rob_fine"
	TransactionTypeRobbedBy           = "robbed_by"
	TransactionTypeIncome             = "income"
	TransactionTypeLoanDisbursement   = "loan_disbursement"
	TransactionTypeLoanRepayment      = "loan_repayment"
	TransactionTypeInvestmentLock     = "investment_lock"
	TransactionTypeInvestmentPayout   = "investment_payout"
	TransactionTypeMarketSale         = "market_sale"
	TransactionTypeMarketPurchase     = "market_purchase"
	TransactionTypeMarketTax          = "market_tax"
	TransactionTypeTrade              = "trade"
)

// Which balance a transaction row mutated.
const (
	AccountWallet = "wallet"
	AccountBank   = "bank"
)

// Transaction is an immutable log row. Amount is signed: debits are negative,
// credits positive. WalletID is always the owner's wallet; Account says
// whether the wallet or the bank balance moved. Rows sharing a Reference were
// committed by the same settlement call.
type Transaction struct {
	ID        uint   `gorm:"primarykey"`
	TenantID  string `gorm:"not null;index"`
	WalletID  uint   `gorm:"not null;index"`
	Account   string `gorm:"not null;default:'wallet'"`
	Type      string `gorm:"not null"`
	Amount    int64  `gorm:"not null"`
	Reference string `gorm:"index"`
	Metadata  JSON   `gorm:"type:jsonb"`
	Earned    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}
