package loan

import (
	"context"
	"sync"
	"testing"
	"time"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// desk is a single-borrower fake: one wallet, an in-memory loan book and a
// recording settler. It implements repositories.LoanRepository,
// repositories.AccountRepository and the Settler interface.
type desk struct {
	mu       sync.Mutex
	balance  int64
	score    int
	loans    []*models.Loan
	nextID   uint
	calls    []settlement.Request
	noUser   bool
	scoreOps int

	// defaultMidSettle flips every active loan to DEFAULTED right after the
	// next settlement lands, as a sweep winning the status race would.
	defaultMidSettle bool
}

const deskWalletID = uint(1)

func newDesk(balance int64, score int) *desk {
	return &desk{balance: balance, score: score, nextID: 1}
}

func (f *desk) Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range req.Entries {
		if e.Amount < 0 && f.balance < -e.Amount {
			return nil, settlement.ErrInsufficientFunds
		}
	}
	for _, e := range req.Entries {
		f.balance += e.Amount
	}
	f.calls = append(f.calls, req)
	if f.defaultMidSettle {
		f.defaultMidSettle = false
		for _, l := range f.loans {
			if l.Status == models.LoanStatusActive {
				l.Status = models.LoanStatusDefaulted
			}
		}
	}
	ref := settlement.AccountRef{Kind: settlement.KindWallet, ID: deskWalletID}
	return &settlement.Result{
		Reference: "ref",
		Balances:  map[settlement.AccountRef]int64{ref: f.balance},
	}, nil
}

func (f *desk) Create(ctx context.Context, loan *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan.ID = f.nextID
	f.nextID++
	loan.CreatedAt = time.Now()
	cp := *loan
	f.loans = append(f.loans, &cp)
	return nil
}

func (f *desk) ActiveLoans(ctx context.Context, userID uint) ([]models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Loan
	for _, l := range f.loans {
		if l.UserID == userID && l.Status == models.LoanStatusActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *desk) CountActive(ctx context.Context, userID uint) (int64, error) {
	active, _ := f.ActiveLoans(ctx, userID)
	return int64(len(active)), nil
}

func (f *desk) ReduceRemaining(ctx context.Context, loanID uint, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID == loanID && l.Status == models.LoanStatusActive && l.RemainingAmount >= amount {
			l.RemainingAmount -= amount
			return nil
		}
	}
	return repositories.ErrLoanNotFound
}

func (f *desk) MarkRepaid(ctx context.Context, loanID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID == loanID && l.Status == models.LoanStatusActive {
			l.Status = models.LoanStatusRepaid
			l.RemainingAmount = 0
			return true, nil
		}
	}
	return false, nil
}

func (f *desk) MarkDefaulted(ctx context.Context, loanID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID == loanID && l.Status == models.LoanStatusActive {
			l.Status = models.LoanStatusDefaulted
			return true, nil
		}
	}
	return false, nil
}

func (f *desk) Overdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Loan
	for _, l := range f.loans {
		if l.Status == models.LoanStatusActive && l.DueDate.Before(now) {
			out = append(out, *l)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *desk) GetOrCreateUser(ctx context.Context, tenantID, platformID, displayName string, initialGrant int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.User{
		ID:          1,
		PlatformID:  platformID,
		TenantID:    tenantID,
		CreditScore: f.score,
		Wallet:      &models.Wallet{ID: deskWalletID, UserID: 1, TenantID: tenantID, Balance: f.balance},
	}, nil
}

func (f *desk) GetUser(ctx context.Context, tenantID, platformID string) (*models.User, error) {
	if f.noUser {
		return nil, repositories.ErrUserNotFound
	}
	return f.GetOrCreateUser(ctx, tenantID, platformID, "", 0)
}

func (f *desk) GetWalletByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Wallet{ID: deskWalletID, UserID: userID, Balance: f.balance}, nil
}

func (f *desk) GetOrCreateBank(ctx context.Context, userID uint, tenantID string, cap int64) (*models.Bank, error) {
	return nil, repositories.ErrBankNotFound
}

func (f *desk) AdjustCreditScore(ctx context.Context, userID uint, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.score = models.ClampCreditScore(f.score + delta)
	f.scoreOps++
	return f.score, nil
}

func (f *desk) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	return nil, nil
}

func (f *desk) LedgerSum(ctx context.Context, walletID uint) (int64, error) {
	return 0, nil
}

type fixedTenants struct {
	cfg config.TenantConfig
}

func (p fixedTenants) Get(_ context.Context, _ string) (config.TenantConfig, error) {
	return p.cfg, nil
}

func loanConfig() config.TenantConfig {
	cfg := config.TenantConfig{InitialGrant: 500, MaxActiveLoans: 1}
	cfg.Rates.Loan = 10
	return cfg
}

func newLoanService(f *desk, cfg config.TenantConfig, now time.Time) *Service {
	svc := NewService(f, f, f, fixedTenants{cfg: cfg})
	svc.now = func() time.Time { return now }
	return svc
}

func borrower() models.Identity {
	return models.Identity{TenantID: "guild-1", PlatformID: "p1", DisplayName: "p1"}
}

func TestLimitsForScore(t *testing.T) {
	tests := []struct {
		score     int
		maxAmount int64
		maxDays   int
	}{
		{300, 1000, 7},
		{499, 1000, 7},
		{500, 2500, 14},
		{600, 2500, 14},
		{649, 2500, 14},
		{650, 5000, 21},
		{799, 5000, 21},
		{800, 10000, 30},
		{900, 10000, 30},
	}
	cfg := config.TenantConfig{LoanBaseAmount: 1000}
	for _, tt := range tests {
		limits := LimitsForScore(tt.score, cfg)
		assert.Equal(t, tt.maxAmount, limits.MaxLoanAmount, "score %d", tt.score)
		assert.Equal(t, tt.maxDays, limits.MaxDays, "score %d", tt.score)
	}

	t.Run("scales with the tenant base", func(t *testing.T) {
		rich := config.TenantConfig{LoanBaseAmount: 4000}
		assert.Equal(t, int64(40000), LimitsForScore(850, rich).MaxLoanAmount)
		assert.Equal(t, int64(4000), LimitsForScore(400, rich).MaxLoanAmount)
	})

	t.Run("unset base falls back to the default ladder", func(t *testing.T) {
		limits := LimitsForScore(700, config.TenantConfig{})
		assert.Equal(t, int64(5000), limits.MaxLoanAmount)
	})
}

func TestApply_IssuesLoan(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newDesk(0, 700)
	svc := newLoanService(f, loanConfig(), issued)

	loan, err := svc.Apply(context.Background(), borrower(), 1000)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), loan.Principal)
	assert.Equal(t, int64(1100), loan.TotalRepayment)
	assert.Equal(t, int64(1100), loan.RemainingAmount)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.Equal(t, issued.AddDate(0, 0, 21), loan.DueDate)

	// Principal lands in the wallet before the loan row exists.
	assert.Equal(t, int64(1000), f.balance)
	require.Len(t, f.calls, 1)
	entry := f.calls[0].Entries[0]
	assert.Equal(t, models.TransactionTypeLoanDisbursement, entry.Type)
	assert.Equal(t, int64(1000), entry.Amount)
	assert.Equal(t, int64(1100), entry.Metadata["total_repayment"])
}

func TestApply_Guards(t *testing.T) {
	now := time.Now()

	t.Run("invalid amount", func(t *testing.T) {
		f := newDesk(0, 700)
		svc := newLoanService(f, loanConfig(), now)
		_, err := svc.Apply(context.Background(), borrower(), 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("tier cap", func(t *testing.T) {
		f := newDesk(0, 600)
		svc := newLoanService(f, loanConfig(), now)
		_, err := svc.Apply(context.Background(), borrower(), 3000)
		assert.ErrorIs(t, err, ErrLimitExceeded)
		assert.Empty(t, f.calls)
		assert.Empty(t, f.loans)
	})

	t.Run("active loan limit", func(t *testing.T) {
		f := newDesk(0, 700)
		svc := newLoanService(f, loanConfig(), now)
		_, err := svc.Apply(context.Background(), borrower(), 1000)
		require.NoError(t, err)
		_, err = svc.Apply(context.Background(), borrower(), 1000)
		assert.ErrorIs(t, err, ErrLimitExceeded)
		require.Len(t, f.loans, 1)
	})
}

func TestRepay_PartialThenClose(t *testing.T) {
	f := newDesk(0, 700)
	svc := newLoanService(f, loanConfig(), time.Now())

	_, err := svc.Apply(context.Background(), borrower(), 1000)
	require.NoError(t, err)
	f.balance = 2000

	res, err := svc.Repay(context.Background(), borrower(), 400)
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Paid)
	assert.Equal(t, int64(700), res.Remaining)
	assert.False(t, res.Repaid)

	res, err = svc.Repay(context.Background(), borrower(), 400)
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.Remaining)

	// The final payment is capped at the 300 still owed; the extra 100
	// never leaves the wallet.
	res, err = svc.Repay(context.Background(), borrower(), 400)
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.Paid)
	assert.True(t, res.Repaid)
	assert.Equal(t, 725, res.Score)

	assert.Equal(t, int64(900), f.balance)
	assert.Equal(t, models.LoanStatusRepaid, f.loans[0].Status)
	assert.Equal(t, 1, f.scoreOps)

	_, err = svc.Repay(context.Background(), borrower(), 100)
	assert.ErrorIs(t, err, ErrNoActiveLoan)
}

func TestRepay_Guards(t *testing.T) {
	f := newDesk(0, 700)
	svc := newLoanService(f, loanConfig(), time.Now())

	_, err := svc.Repay(context.Background(), borrower(), -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Repay(context.Background(), borrower(), 100)
	assert.ErrorIs(t, err, ErrNoActiveLoan)

	_, err = svc.Apply(context.Background(), borrower(), 1000)
	require.NoError(t, err)
	f.balance = 50
	_, err = svc.Repay(context.Background(), borrower(), 400)
	assert.ErrorIs(t, err, settlement.ErrInsufficientFunds)
	assert.Equal(t, int64(1100), f.loans[0].RemainingAmount)
}

func TestRepay_LostStatusRaceRefundsDebit(t *testing.T) {
	t.Run("full cover", func(t *testing.T) {
		f := newDesk(0, 700)
		svc := newLoanService(f, loanConfig(), time.Now())
		_, err := svc.Apply(context.Background(), borrower(), 1000)
		require.NoError(t, err)
		f.balance = 2000

		f.defaultMidSettle = true
		_, err = svc.Repay(context.Background(), borrower(), 1100)
		assert.ErrorIs(t, err, ErrNoActiveLoan)

		// The debit is handed back and the lost loan earns no reward.
		assert.Equal(t, int64(2000), f.balance)
		assert.Equal(t, models.LoanStatusDefaulted, f.loans[0].Status)
		assert.Equal(t, 0, f.scoreOps)
	})

	t.Run("partial payment", func(t *testing.T) {
		f := newDesk(0, 700)
		svc := newLoanService(f, loanConfig(), time.Now())
		_, err := svc.Apply(context.Background(), borrower(), 1000)
		require.NoError(t, err)
		f.balance = 2000

		f.defaultMidSettle = true
		_, err = svc.Repay(context.Background(), borrower(), 400)
		assert.ErrorIs(t, err, ErrNoActiveLoan)
		assert.Equal(t, int64(2000), f.balance)
		assert.Equal(t, int64(1100), f.loans[0].RemainingAmount)
	})
}

func TestSweepDefaults_Idempotent(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newDesk(0, 700)
	svc := newLoanService(f, loanConfig(), issued)

	_, err := svc.Apply(context.Background(), borrower(), 1000)
	require.NoError(t, err)

	// Still inside the 21-day window: nothing to flag.
	svc.now = func() time.Time { return issued.AddDate(0, 0, 20) }
	n, err := svc.SweepDefaults(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	svc.now = func() time.Time { return issued.AddDate(0, 0, 22) }
	n, err = svc.SweepDefaults(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.LoanStatusDefaulted, f.loans[0].Status)
	assert.Equal(t, 650, f.score)

	// A second sweep over the same window must not penalize twice.
	n, err = svc.SweepDefaults(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 650, f.score)
	assert.Equal(t, 1, f.scoreOps)
}

func TestActiveLoans(t *testing.T) {
	f := newDesk(0, 700)
	svc := newLoanService(f, loanConfig(), time.Now())

	t.Run("unknown user", func(t *testing.T) {
		f.noUser = true
		loans, err := svc.ActiveLoans(context.Background(), borrower())
		require.NoError(t, err)
		assert.Nil(t, loans)
		f.noUser = false
	})

	t.Run("open loan listed", func(t *testing.T) {
		_, err := svc.Apply(context.Background(), borrower(), 1000)
		require.NoError(t, err)
		loans, err := svc.ActiveLoans(context.Background(), borrower())
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, int64(1100), loans[0].RemainingAmount)
	})
}
