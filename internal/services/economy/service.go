// Package economy implements the user-facing money commands: balances,
// deposits, withdrawals, transfers, income and robbery. Balances move only
// through the settlement protocol; this package computes deltas and
// preconditions, never touches a balance directly.
package economy

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/cooldown"
	"casino/internal/services/settlement"
)

// Settler commits one settlement request.
type Settler interface {
	Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

// CooldownError carries the remaining wait of a rejected activity.
type CooldownError struct {
	Activity  string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Activity, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == ErrOnCooldown }

// BalanceSummary is returned by every accepted operation.
type BalanceSummary struct {
	Wallet int64 `json:"wallet"`
	Bank   int64 `json:"bank"`
}

type Service struct {
	accounts  repositories.AccountRepository
	settler   Settler
	cooldowns cooldown.Guard
	tenants   config.TenantProvider
	cache     Cache
}

// NewService wires the economy commands. cache may be nil, in which case
// balance reads always hit the database.
func NewService(accounts repositories.AccountRepository, settler Settler, cooldowns cooldown.Guard, tenants config.TenantProvider, cache Cache) *Service {
	if accounts == nil {
		panic("accounts repository is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	if cooldowns == nil {
		panic("cooldown guard is required")
	}
	if tenants == nil {
		panic("tenant provider is required")
	}
	return &Service{accounts: accounts, settler: settler, cooldowns: cooldowns, tenants: tenants, cache: cache}
}

// resolve loads tenant config and the (lazily created) user + wallet.
func (s *Service) resolve(ctx context.Context, ident models.Identity) (config.TenantConfig, *models.User, *models.Wallet, error) {
	cfg, err := s.tenants.Get(ctx, ident.TenantID)
	if err != nil {
		return config.TenantConfig{}, nil, nil, fmt.Errorf("tenant config: %w", err)
	}
	user, err := s.accounts.GetOrCreateUser(ctx, ident.TenantID, ident.PlatformID, ident.DisplayName, cfg.InitialGrant)
	if err != nil {
		return cfg, nil, nil, err
	}
	wallet := user.Wallet
	if wallet == nil {
		wallet, err = s.accounts.GetWalletByUser(ctx, user.ID)
		if err != nil {
			return cfg, user, nil, err
		}
	}
	return cfg, user, wallet, nil
}

// Balance reads wallet and bank without mutating anything. Summaries are
// served from the cache when fresh; every mutation in this package
// invalidates them.
func (s *Service) Balance(ctx context.Context, ident models.Identity) (*BalanceSummary, error) {
	cfg, user, wallet, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if sum, ok := s.cachedBalance(ctx, user.ID); ok {
		return sum, nil
	}
	bank, err := s.accounts.GetOrCreateBank(ctx, user.ID, ident.TenantID, cfg.BankLimit)
	if err != nil {
		return nil, err
	}
	sum := &BalanceSummary{Wallet: wallet.Balance, Bank: bank.Balance}
	s.storeBalance(ctx, user.ID, sum)
	return sum, nil
}

// Deposit moves wallet funds into the protected bank balance.
func (s *Service) Deposit(ctx context.Context, ident models.Identity, amount int64) (*BalanceSummary, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, user, wallet, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	bank, err := s.accounts.GetOrCreateBank(ctx, user.ID, ident.TenantID, cfg.BankLimit)
	if err != nil {
		return nil, err
	}
	if bank.Cap > 0 && bank.Balance+amount > bank.Cap {
		return nil, fmt.Errorf("%w: bank cap %d", ErrLimitExceeded, bank.Cap)
	}

	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
				WalletID: wallet.ID,
				Type:     models.TransactionTypeDeposit,
				Amount:   -amount,
			},
			{
				Account:  settlement.AccountRef{Kind: settlement.KindBank, ID: bank.ID},
				WalletID: wallet.ID,
				Type:     models.TransactionTypeDeposit,
				Amount:   amount,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateBalances(ctx, user.ID)
	return summarize(res, wallet.ID, bank.ID), nil
}

// Withdraw moves bank funds back into the wallet.
func (s *Service) Withdraw(ctx context.Context, ident models.Identity, amount int64) (*BalanceSummary, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, user, wallet, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	bank, err := s.accounts.GetOrCreateBank(ctx, user.ID, ident.TenantID, cfg.BankLimit)
	if err != nil {
		return nil, err
	}

	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{
			{
				Account:  settlement.AccountRef{Kind: settlement.KindBank, ID: bank.ID},
				WalletID: wallet.ID,
				Type:     models.TransactionTypeWithdraw,
				Amount:   -amount,
			},
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
				WalletID: wallet.ID,
				Type:     models.TransactionTypeWithdraw,
				Amount:   amount,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateBalances(ctx, user.ID)
	return summarize(res, wallet.ID, bank.ID), nil
}

// Transfer sends wallet funds to another user in the same tenant.
func (s *Service) Transfer(ctx context.Context, from models.Identity, toPlatformID string, amount int64) (*BalanceSummary, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if from.PlatformID == toPlatformID {
		return nil, ErrSelfTransfer
	}
	cfg, sender, srcWallet, err := s.resolve(ctx, from)
	if err != nil {
		return nil, err
	}
	recipient, err := s.accounts.GetOrCreateUser(ctx, from.TenantID, toPlatformID, "", cfg.InitialGrant)
	if err != nil {
		return nil, err
	}
	dstWallet := recipient.Wallet
	if dstWallet == nil {
		dstWallet, err = s.accounts.GetWalletByUser(ctx, recipient.ID)
		if err != nil {
			return nil, err
		}
	}

	meta := models.JSON{"counterparty": toPlatformID}
	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: from.TenantID,
		Entries: []settlement.Entry{
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: srcWallet.ID},
				WalletID: srcWallet.ID,
				Type:     models.TransactionTypeTransferSent,
				Amount:   -amount,
				Metadata: meta,
			},
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: dstWallet.ID},
				WalletID: dstWallet.ID,
				Type:     models.TransactionTypeTransferReceived,
				Amount:   amount,
				Metadata: models.JSON{"counterparty": from.PlatformID},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateBalances(ctx, sender.ID, recipient.ID)
	return summarize(res, srcWallet.ID, 0), nil
}

// Daily pays the tenant's daily stipend, gated by the daily cooldown.
func (s *Service) Daily(ctx context.Context, ident models.Identity) (*BalanceSummary, error) {
	return s.income(ctx, ident, "daily", func(cfg config.TenantConfig) (int64, time.Duration) {
		return cfg.DailyAmount, cfg.DailyCooldown
	})
}

// Work pays a random wage within the tenant's configured range.
func (s *Service) Work(ctx context.Context, ident models.Identity) (*BalanceSummary, error) {
	return s.income(ctx, ident, "work", func(cfg config.TenantConfig) (int64, time.Duration) {
		min, max := cfg.WorkMinAmount, cfg.WorkMaxAmount
		if max <= min {
			return min, cfg.WorkCooldown
		}
		return min + rand.Int63n(max-min+1), cfg.WorkCooldown
	})
}

func (s *Service) income(ctx context.Context, ident models.Identity, activity string, pick func(config.TenantConfig) (int64, time.Duration)) (*BalanceSummary, error) {
	cfg, user, wallet, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	amount, wait := pick(cfg)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if cfg.WalletLimit > 0 && wallet.Balance+amount > cfg.WalletLimit {
		return nil, fmt.Errorf("%w: wallet limit %d", ErrLimitExceeded, cfg.WalletLimit)
	}

	remaining, err := s.cooldowns.Check(ctx, cooldown.Key{
		TenantID: ident.TenantID,
		UserID:   ident.PlatformID,
		Activity: activity,
	}, wait)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, &CooldownError{Activity: activity, Remaining: remaining}
	}

	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
			WalletID: wallet.ID,
			Type:     models.TransactionTypeIncome,
			Amount:   amount,
			Metadata: models.JSON{"activity": activity},
			Earned:   true,
		}},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateBalances(ctx, user.ID)
	return summarize(res, wallet.ID, 0), nil
}

// RobResult reports how a robbery resolved.
type RobResult struct {
	Success bool  `json:"success"`
	Amount  int64 `json:"amount"`
	Wallet  int64 `json:"wallet"`
}

// Rob attempts to steal from another user's wallet. The victim's live balance
// is re-read immediately before the slice is computed, so the outcome never
// acts on stale data. Success moves a random 10-50% slice of the victim's
// current balance; failure fines the robber a floor-bounded percentage of
// their own balance, burned.
func (s *Service) Rob(ctx context.Context, robber models.Identity, victimPlatformID string) (*RobResult, error) {
	if robber.PlatformID == victimPlatformID {
		return nil, ErrSelfRob
	}
	cfg, robberUser, robberWallet, err := s.resolve(ctx, robber)
	if err != nil {
		return nil, err
	}

	remaining, err := s.cooldowns.Check(ctx, cooldown.Key{
		TenantID: robber.TenantID,
		UserID:   robber.PlatformID,
		Activity: "rob",
	}, cfg.RobCooldown)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, &CooldownError{Activity: "rob", Remaining: remaining}
	}

	victim, err := s.accounts.GetUser(ctx, robber.TenantID, victimPlatformID)
	if err != nil {
		return nil, err
	}

	if rand.Intn(100) < cfg.RobSuccessPct {
		// Live read: the slice is computed off the balance as of now, not
		// whatever the victim held when the command was issued.
		victimWallet, err := s.accounts.GetWalletByUser(ctx, victim.ID)
		if err != nil {
			return nil, err
		}
		if victimWallet.Balance <= 0 {
			return nil, ErrNothingToRob
		}
		pct := int64(10 + rand.Intn(41)) // 10..50
		slice := victimWallet.Balance * pct / 100
		if slice <= 0 {
			return nil, ErrNothingToRob
		}

		res, err := s.settler.Execute(ctx, settlement.Request{
			TenantID: robber.TenantID,
			Entries: []settlement.Entry{
				{
					Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: victimWallet.ID},
					WalletID: victimWallet.ID,
					Type:     models.TransactionTypeRobbedBy,
					Amount:   -slice,
					Metadata: models.JSON{"robber": robber.PlatformID},
				},
				{
					Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: robberWallet.ID},
					WalletID: robberWallet.ID,
					Type:     models.TransactionTypeRobWin,
					Amount:   slice,
					Metadata: models.JSON{"victim": victimPlatformID},
				},
			},
		})
		if err != nil {
			return nil, err
		}
		s.invalidateBalances(ctx, robberUser.ID, victim.ID)
		return &RobResult{
			Success: true,
			Amount:  slice,
			Wallet:  res.Balances[settlement.AccountRef{Kind: settlement.KindWallet, ID: robberWallet.ID}],
		}, nil
	}

	fine := robberWallet.Balance * cfg.RobFinePct / 100
	if fine < cfg.RobFineFloor {
		fine = cfg.RobFineFloor
	}
	if fine > robberWallet.Balance {
		fine = robberWallet.Balance
	}
	if fine <= 0 {
		return &RobResult{Success: false, Amount: 0, Wallet: robberWallet.Balance}, nil
	}

	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: robber.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: robberWallet.ID},
			WalletID: robberWallet.ID,
			Type:     models.TransactionTypeRobFine,
			Amount:   -fine,
			Metadata: models.JSON{"victim": victimPlatformID},
		}},
	})
	if err != nil {
		return nil, err
	}
	s.invalidateBalances(ctx, robberUser.ID)
	return &RobResult{
		Success: false,
		Amount:  fine,
		Wallet:  res.Balances[settlement.AccountRef{Kind: settlement.KindWallet, ID: robberWallet.ID}],
	}, nil
}

// History returns the newest transaction rows of the caller's wallet.
func (s *Service) History(ctx context.Context, ident models.Identity, limit, offset int) ([]models.Transaction, error) {
	_, _, wallet, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.accounts.GetTransactionHistory(ctx, wallet.ID, limit, offset)
}

func summarize(res *settlement.Result, walletID, bankID uint) *BalanceSummary {
	out := &BalanceSummary{}
	if b, ok := res.Balances[settlement.AccountRef{Kind: settlement.KindWallet, ID: walletID}]; ok {
		out.Wallet = b
	}
	if bankID != 0 {
		if b, ok := res.Balances[settlement.AccountRef{Kind: settlement.KindBank, ID: bankID}]; ok {
			out.Bank = b
		}
	}
	return out
}
