package repositories

import (
	"context"
	"errors"
	"fmt"

	"casino/internal/models"
	"casino/internal/services/settlement"

	"gorm.io/gorm"
)

// settlementStore implements settlement.Store on gorm. The conditional
// decrement is a single UPDATE guarded by the balance predicate, which is the
// one atomicity guarantee the protocol demands from any backend.
type settlementStore struct {
	db      *gorm.DB
	grouped bool
}

// NewSettlementStore probes the connection for multi-statement transaction
// support and returns the store. gorm on postgres always groups; the probe
// exists so the same store can sit on backends that cannot.
func NewSettlementStore(db *gorm.DB) settlement.Store {
	grouped := probeGrouping(db)
	return &settlementStore{db: db, grouped: grouped}
}

func probeGrouping(db *gorm.DB) bool {
	tx := db.Begin()
	if tx.Error != nil {
		return false
	}
	tx.Rollback()
	return true
}

func (s *settlementStore) SupportsGrouping() bool { return s.grouped }

func (s *settlementStore) InGroup(ctx context.Context, fn func(settlement.Store) error) error {
	if !s.grouped {
		return settlement.ErrGroupingUnavailable
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&settlementStore{db: tx, grouped: true})
	})
}

func (s *settlementStore) DebitIfSufficient(ctx context.Context, ref settlement.AccountRef, amount int64) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND balance >= ?", ref.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("conditional debit: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// The predicate failed; distinguish why without writing anything.
	balance, err := s.readBalance(ctx, ref)
	if err != nil {
		return err
	}
	if balance < amount {
		return settlement.ErrInsufficientFunds
	}
	// Balance reads as sufficient now, so another writer raced our UPDATE.
	return settlement.ErrConcurrentModification
}

func (s *settlementStore) Credit(ctx context.Context, ref settlement.AccountRef, amount int64) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	query := s.db.WithContext(ctx).Table(table).Where("id = ?", ref.ID)
	if ref.Kind == settlement.KindBank {
		// Bank credits respect the row's cap; cap 0 means uncapped.
		query = query.Where("cap = 0 OR balance + ? <= cap", amount)
	}
	res := query.Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.readBalance(ctx, ref); err != nil {
		return err
	}
	return settlement.ErrLimitExceeded
}

func (s *settlementStore) AppendTransactions(ctx context.Context, txns []models.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&txns).Error; err != nil {
		return fmt.Errorf("append transactions: %w", err)
	}
	return nil
}

func (s *settlementStore) MoveItems(ctx context.Context, tenantID string, moves []settlement.ItemMove) error {
	for _, m := range moves {
		if m.FromUserID != nil {
			res := s.db.WithContext(ctx).
				Model(&models.InventorySlot{}).
				Where("user_id = ? AND shop_item_id = ? AND amount >= ?", *m.FromUserID, m.ShopItemID, m.Amount).
				Update("amount", gorm.Expr("amount - ?", m.Amount))
			if res.Error != nil {
				return fmt.Errorf("inventory debit: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return settlement.ErrItemNoLongerAvailable
			}
		}
		if m.ToUserID != nil {
			if err := s.addToInventory(ctx, tenantID, *m.ToUserID, m.ShopItemID, m.Amount); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *settlementStore) addToInventory(ctx context.Context, tenantID string, userID uint, itemID string, amount int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.InventorySlot{}).
		Where("user_id = ? AND shop_item_id = ?", userID, itemID).
		Update("amount", gorm.Expr("amount + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("inventory credit: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	slot := models.InventorySlot{
		UserID:     userID,
		TenantID:   tenantID,
		ShopItemID: itemID,
		Amount:     amount,
	}
	if err := s.db.WithContext(ctx).Create(&slot).Error; err != nil {
		return fmt.Errorf("inventory create: %w", err)
	}
	return nil
}

func (s *settlementStore) Balances(ctx context.Context, refs []settlement.AccountRef) (map[settlement.AccountRef]int64, error) {
	out := make(map[settlement.AccountRef]int64, len(refs))
	for _, ref := range refs {
		balance, err := s.readBalance(ctx, ref)
		if err != nil {
			return nil, err
		}
		out[ref] = balance
	}
	return out, nil
}

func (s *settlementStore) readBalance(ctx context.Context, ref settlement.AccountRef) (int64, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return 0, err
	}
	var balance int64
	res := s.db.WithContext(ctx).Table(table).Where("id = ?", ref.ID).Select("balance").Scan(&balance)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, settlement.ErrAccountNotFound
		}
		return 0, fmt.Errorf("read balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, settlement.ErrAccountNotFound
	}
	return balance, nil
}

func tableFor(kind settlement.AccountKind) (string, error) {
	switch kind {
	case settlement.KindWallet:
		return "wallets", nil
	case settlement.KindBank:
		return "banks", nil
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
}
