// Package investment implements time-locked deposits. The payout is fixed at
// creation; collecting deletes the row first and credits the bank second, so
// no payout can ever be collected twice.
package investment

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
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid investment type")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Settler commits one settlement request.
type Settler interface {
	Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

type Service struct {
	investments repositories.InvestmentRepository
	accounts    repositories.AccountRepository
	settler     Settler
	tenants     config.TenantProvider
	now         func() time.Time
}

func NewService(investments repositories.InvestmentRepository, accounts repositories.AccountRepository, settler Settler, tenants config.TenantProvider) *Service {
	if investments == nil {
		panic("investment repository is required")
	}
	if accounts == nil {
		panic("accounts repository is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	return &Service{
		investments: investments,
		accounts:    accounts,
		settler:     settler,
		tenants:     tenants,
		now:         time.Now,
	}
}

// Payout computes principal plus simple interest: rate percent per 30 days,
// scaled by the lock duration.
func Payout(principal, ratePct int64, days int) int64 {
	return principal + principal*ratePct*int64(days)/(100*30)
}

// Create locks wallet funds into a new FD or RD until maturity.
func (s *Service) Create(ctx context.Context, ident models.Identity, invType string, amount int64, days int) (*models.Investment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if days <= 0 {
		return nil, ErrInvalidDuration
	}
	cfg, err := s.tenants.Get(ctx, ident.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
	}

	var rate int64
	switch invType {
	case models.InvestmentTypeFD:
		rate = cfg.Rates.FD
	case models.InvestmentTypeRD:
		rate = cfg.Rates.RD
	default:
		return nil, ErrInvalidType
	}

	user, err := s.accounts.GetOrCreateUser(ctx, ident.TenantID, ident.PlatformID, ident.DisplayName, cfg.InitialGrant)
	if err != nil {
		return nil, err
	}
	wallet := user.Wallet
	if wallet == nil {
		wallet, err = s.accounts.GetWalletByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	inv := &models.Investment{
		UserID:       user.ID,
		TenantID:     ident.TenantID,
		Type:         invType,
		Principal:    amount,
		Payout:       Payout(amount, rate, days),
		MaturityDate: s.now().AddDate(0, 0, days),
	}

	_, err = s.settler.Execute(ctx, settlement.Request{
		TenantID: ident.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: wallet.ID},
			WalletID: wallet.ID,
			Type:     models.TransactionTypeInvestmentLock,
			Amount:   -amount,
			Metadata: models.JSON{"type": invType, "days": days, "payout": inv.Payout},
		}},
	})
	if err != nil {
		return nil, err
	}
	if err := s.investments.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CollectMatured pays out every investment of the caller whose maturity has
// passed. Payouts go to the bank, not the wallet. Each row is claimed by a
// conditional delete before any money moves; a second call finds nothing.
func (s *Service) CollectMatured(ctx context.Context, ident models.Identity) ([]models.Investment, error) {
	user, err := s.accounts.GetUser(ctx, ident.TenantID, ident.PlatformID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	matured, err := s.investments.MaturedForUser(ctx, user.ID, s.now())
	if err != nil {
		return nil, err
	}

	var collected []models.Investment
	for _, inv := range matured {
		ok, err := s.collectOne(ctx, inv)
		if err != nil {
			log.Printf("investment: collect failed for row %d: %v", inv.ID, err)
			continue
		}
		if ok {
			collected = append(collected, inv)
		}
	}
	return collected, nil
}

// SweepMatured auto-collects matured investments tenant-wide. Shares the
// claim-then-credit routine with CollectMatured, so a sweep racing a live
// collect can never both win one row.
func (s *Service) SweepMatured(ctx context.Context, batchSize int) (int, error) {
	matured, err := s.investments.Matured(ctx, s.now(), batchSize)
	if err != nil {
		return 0, err
	}
	collected := 0
	for _, inv := range matured {
		ok, err := s.collectOne(ctx, inv)
		if err != nil {
			log.Printf("investment: sweep collect failed for row %d: %v", inv.ID, err)
			continue
		}
		if ok {
			collected++
		}
	}
	return collected, nil
}

func (s *Service) collectOne(ctx context.Context, inv models.Investment) (bool, error) {
	won, err := s.investments.Claim(ctx, inv.ID)
	if err != nil {
		return false, err
	}
	if !won {
		// Someone else collected this row first.
		return false, nil
	}

	cfg, err := s.tenants.Get(ctx, inv.TenantID)
	if err != nil {
		return false, fmt.Errorf("tenant config: %w", err)
	}
	wallet, err := s.accounts.GetWalletByUser(ctx, inv.UserID)
	if err != nil {
		return false, err
	}
	bank, err := s.accounts.GetOrCreateBank(ctx, inv.UserID, inv.TenantID, cfg.BankLimit)
	if err != nil {
		return false, err
	}

	_, err = s.settler.Execute(ctx, settlement.Request{
		TenantID: inv.TenantID,
		Entries: []settlement.Entry{{
			Account:  settlement.AccountRef{Kind: settlement.KindBank, ID: bank.ID},
			WalletID: wallet.ID,
			Type:     models.TransactionTypeInvestmentPayout,
			Amount:   inv.Payout,
			Metadata: models.JSON{"type": inv.Type, "principal": inv.Principal},
			Earned:   true,
		}},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the caller's open investments, soonest maturity first.
func (s *Service) List(ctx context.Context, ident models.Identity) ([]models.Investment, error) {
	user, err := s.accounts.GetUser(ctx, ident.TenantID, ident.PlatformID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.investments.ByUser(ctx, user.ID)
}
