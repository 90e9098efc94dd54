// Package loan implements credit-scored borrowing: score-derived limits,
// loan issuance and repayment, and the idempotent default sweep.
package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/settlement"
)

// Service errors
var (
	ErrLimitExceeded = errors.New("loan limit exceeded")
	ErrNoActiveLoan  = errors.New("no active loan")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Credit score adjustments.
const (
	scoreRewardRepaid   = 25
	scorePenaltyDefault = -50
)

// Settler commits one settlement request.
type Settler interface {
	Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

type Service struct {
	loans    repositories.LoanRepository
	accounts repositories.AccountRepository
	settler  Settler
	tenants  config.TenantProvider
	now      func() time.Time
}

func NewService(loans repositories.LoanRepository, accounts repositories.AccountRepository, settler Settler, tenants config.TenantProvider) *Service {
	if loans == nil {
		panic("loan repository is required")
	}
	if accounts == nil {
		panic("accounts repository is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	return &Service{
		loans:    loans,
		accounts: accounts,
		settler:  settler,
		tenants:  tenants,
		now:      time.Now,
	}
}

// Apply issues a loan if the amount fits the score-derived tier and the user
// is under the tenant's active-loan limit. The total owed is fixed at
// issuance: principal plus principal * loanRate / 100.
func (s *Service) Apply(ctx context.Context, ident models.Identity, amount int64) (*models.Loan, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := s.tenants.Get(ctx, ident.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
	}
	user, err := s.accounts.GetOrCreateUser(ctx, ident.TenantID, ident.PlatformID, ident.DisplayName, cfg.InitialGrant)
	if err != nil {
		return nil, err
	}

	limits := LimitsForScore(user.CreditScore, cfg)
	if amount > limits.MaxLoanAmount {
		return nil, fmt.Errorf("%w: tier max %d", ErrLimitExceeded, limits.MaxLoanAmount)
	}
	active, err := s.loans.CountActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if active >= int64(cfg.MaxActiveLoans) {
		return nil, fmt.Errorf("%w: %d active loans", ErrLimitExceeded, active)
	}

	wallet := user.Wallet
	if wallet == nil {
		wallet, err = s.accounts.GetWalletByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	total := amount + amount*cfg.Rates.Loan/100
	loan := &models.Loan{
		UserID:          user.ID,
		TenantID:        ident.TenantID,
		Principal:       amount,
		TotalRepayment:  total,
		RemainingAmount: total,
		DueDate:         s.now().AddDate(0, 0, limits.MaxDays),
		Status:          models.LoanStatusActive,
	}

	// Disburse first: a failed credit must not leave a phantom loan.
	_, err = s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
			WalletID: wallet.ID,
			Type:     models.TransactionTypeLoanDisbursement,
			Amount:   amount,
			Metadata: models.JSON{"total_repayment": total},
		}},
	})
	if err != nil {
		return nil, err
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// RepayResult reports what one repayment call did.
type RepayResult struct {
	LoanID    uint  `json:"loan_id"`
	Paid      int64 `json:"paid"`
	Remaining int64 `json:"remaining"`
	Repaid    bool  `json:"repaid"`
	Score     int   `json:"credit_score,omitempty"`
}

// Repay applies a payment to the caller's oldest active loan. The debit is
// capped at the remaining amount, so overpaying a 200-coin remainder with 400
// only costs 200. Full cover closes the loan and rewards the credit score.
func (s *Service) Repay(ctx context.Context, ident models.Identity, amount int64) (*RepayResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.accounts.GetUser(ctx, ident.TenantID, ident.PlatformID)
	if err != nil {
		return nil, err
	}
	loans, err := s.loans.ActiveLoans(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return nil, ErrNoActiveLoan
	}
	oldest := loans[0]

	pay := amount
	if pay > oldest.RemainingAmount {
		pay = oldest.RemainingAmount
	}

	wallet, err := s.accounts.GetWalletByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	_, err = s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
			WalletID: wallet.ID,
			Type:     models.TransactionTypeLoanRepayment,
			Amount:   -pay,
			Metadata: models.JSON{"loan_id": oldest.ID},
		}},
	})
	if err != nil {
		return nil, err
	}

	result := &RepayResult{LoanID: oldest.ID, Paid: pay}
	if pay == oldest.RemainingAmount {
		won, err := s.loans.MarkRepaid(ctx, oldest.ID)
		if err != nil {
			s.refund(ctx, ident.TenantID, wallet.ID, oldest.ID, pay)
			return nil, err
		}
		if !won {
			// The default sweep (or a concurrent repayment) took the loan
			// while the debit settled. The payment applies to nothing, so
			// hand it back.
			s.refund(ctx, ident.TenantID, wallet.ID, oldest.ID, pay)
			return nil, ErrNoActiveLoan
		}
		result.Repaid = true
		score, err := s.accounts.AdjustCreditScore(ctx, user.ID, scoreRewardRepaid)
		if err != nil {
			log.Printf("loan: score reward failed for user %d: %v", user.ID, err)
		} else {
			result.Score = score
		}
		return result, nil
	}

	if err := s.loans.ReduceRemaining(ctx, oldest.ID, pay); err != nil {
		s.refund(ctx, ident.TenantID, wallet.ID, oldest.ID, pay)
		if errors.Is(err, repositories.ErrLoanNotFound) {
			return nil, ErrNoActiveLoan
		}
		return nil, err
	}
	result.Remaining = oldest.RemainingAmount - pay
	return result, nil
}

// refund re-credits a repayment debit whose loan-state write lost its race.
// Best effort: a failure here leaves the same stranded-debit window the
// fallback commit path already documents, and the settlement reference on the
// transaction rows keeps it findable.
func (s *Service) refund(ctx context.Context, tenantID string, walletID, loanID uint, amount int64) {
	_, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: tenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: walletID},
			WalletID: walletID,
			Type:     models.TransactionTypeLoanRepayment,
			Amount:   amount,
			Metadata: models.JSON{"loan_id": loanID, "refund": true},
		}},
	})
	if err != nil {
		log.Printf("loan: repayment refund failed for loan %d: %v", loanID, err)
	}
}

// ActiveLoans lists the caller's open loans, oldest first.
func (s *Service) ActiveLoans(ctx context.Context, ident models.Identity) ([]models.Loan, error) {
	user, err := s.accounts.GetUser(ctx, ident.TenantID, ident.PlatformID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.loans.ActiveLoans(ctx, user.ID)
}

// SweepDefaults flags overdue loans and penalizes their owners' credit
// scores. The status flip is a conditional write, so a loan already flagged
// (or repaid in the same instant) is skipped and the penalty lands exactly
// once per loan no matter how often the sweep runs.
func (s *Service) SweepDefaults(ctx context.Context, batchSize int) (int, error) {
	overdue, err := s.loans.Overdue(ctx, s.now(), batchSize)
	if err != nil {
		return 0, err
	}
	defaulted := 0
	for _, l := range overdue {
		won, err := s.loans.MarkDefaulted(ctx, l.ID)
		if err != nil {
			log.Printf("loan: default flag failed for loan %d: %v", l.ID, err)
			continue
		}
		if !won {
			continue
		}
		defaulted++
		if _, err := s.accounts.AdjustCreditScore(ctx, l.UserID, scorePenaltyDefault); err != nil {
			log.Printf("loan: score penalty failed for user %d: %v", l.UserID, err)
		}
	}
	return defaulted, nil
}
