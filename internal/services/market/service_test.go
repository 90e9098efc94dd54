package market

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bazaar is a multi-user fake: users with wallets, per-user inventory, the
// listing table and a recording settler. It implements
// repositories.MarketRepository, repositories.AccountRepository and the
// Settler interface.
type bazaar struct {
	mu          sync.Mutex
	users       map[string]*models.User // keyed by "tenant|platform"
	balances    map[uint]int64          // wallet id -> balance
	inventory   map[string]int64        // "userID:item" -> amount
	listings    map[string]models.MarketListing
	nextUserID  uint
	calls       []settlement.Request
	failSettle  bool
	failRestock bool
}

func newBazaar() *bazaar {
	return &bazaar{
		users:     make(map[string]*models.User),
		balances:  make(map[uint]int64),
		inventory: make(map[string]int64),
		listings:  make(map[string]models.MarketListing),
	}
}

func invKey(userID uint, itemID string) string {
	return fmt.Sprintf("%d:%s", userID, itemID)
}

// seed creates a user with a funded wallet and an inventory holding.
func (f *bazaar) seed(ident models.Identity, balance int64, itemID string, amount int64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.lookup(ident.TenantID, ident.PlatformID, true)
	f.balances[user.Wallet.ID] = balance
	if itemID != "" {
		f.inventory[invKey(user.ID, itemID)] = amount
	}
	return user
}

// lookup resolves or creates a user. Caller holds the lock.
func (f *bazaar) lookup(tenantID, platformID string, create bool) *models.User {
	key := tenantID + "|" + platformID
	if u, ok := f.users[key]; ok {
		u.Wallet.Balance = f.balances[u.Wallet.ID]
		return u
	}
	if !create {
		return nil
	}
	f.nextUserID++
	u := &models.User{
		ID:         f.nextUserID,
		PlatformID: platformID,
		TenantID:   tenantID,
		Wallet:     &models.Wallet{ID: f.nextUserID, UserID: f.nextUserID, TenantID: tenantID},
	}
	f.users[key] = u
	return u
}

func (f *bazaar) Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSettle {
		return nil, settlement.ErrSettlementFailed
	}
	for _, e := range req.Entries {
		if e.Amount < 0 && f.balances[e.Account.ID]+e.Amount < 0 {
			return nil, settlement.ErrInsufficientFunds
		}
	}
	for _, m := range req.Items {
		if m.FromUserID != nil && f.inventory[invKey(*m.FromUserID, m.ShopItemID)] < m.Amount {
			return nil, settlement.ErrItemNoLongerAvailable
		}
	}
	for _, e := range req.Entries {
		f.balances[e.Account.ID] += e.Amount
	}
	for _, m := range req.Items {
		if m.FromUserID != nil {
			f.inventory[invKey(*m.FromUserID, m.ShopItemID)] -= m.Amount
		}
		if m.ToUserID != nil {
			f.inventory[invKey(*m.ToUserID, m.ShopItemID)] += m.Amount
		}
	}
	f.calls = append(f.calls, req)
	balances := make(map[settlement.AccountRef]int64)
	for _, e := range req.Entries {
		balances[e.Account] = f.balances[e.Account.ID]
	}
	return &settlement.Result{Reference: "ref", Balances: balances}, nil
}

func (f *bazaar) CreateListingEscrow(ctx context.Context, listing *models.MarketListing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := invKey(listing.SellerID, listing.ShopItemID)
	if f.inventory[key] < listing.Amount {
		return repositories.ErrInventoryShort
	}
	f.inventory[key] -= listing.Amount
	f.listings[listing.ID] = *listing
	return nil
}

func (f *bazaar) GetListing(ctx context.Context, id string) (*models.MarketListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, repositories.ErrListingNotFound
	}
	return &listing, nil
}

func (f *bazaar) ListingsByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.MarketListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MarketListing
	for _, l := range f.listings {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *bazaar) ClaimListing(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[id]; !ok {
		return false, nil
	}
	delete(f.listings, id)
	return true, nil
}

func (f *bazaar) RestoreListing(ctx context.Context, listing *models.MarketListing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[listing.ID] = *listing
	return nil
}

func (f *bazaar) GetInventory(ctx context.Context, userID uint, itemID string) (*models.InventorySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.InventorySlot{UserID: userID, ShopItemID: itemID, Amount: f.inventory[invKey(userID, itemID)]}, nil
}

func (f *bazaar) AddInventory(ctx context.Context, tenantID string, userID uint, itemID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRestock {
		return assert.AnError
	}
	f.inventory[invKey(userID, itemID)] += amount
	return nil
}

func (f *bazaar) GetOrCreateUser(ctx context.Context, tenantID, platformID, displayName string, initialGrant int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookup(tenantID, platformID, true), nil
}

func (f *bazaar) GetUser(ctx context.Context, tenantID, platformID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.lookup(tenantID, platformID, false)
	if u == nil {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (f *bazaar) GetWalletByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Wallet{ID: userID, UserID: userID, Balance: f.balances[userID]}, nil
}

func (f *bazaar) GetOrCreateBank(ctx context.Context, userID uint, tenantID string, cap int64) (*models.Bank, error) {
	return nil, repositories.ErrBankNotFound
}

func (f *bazaar) AdjustCreditScore(ctx context.Context, userID uint, delta int) (int, error) {
	return 0, repositories.ErrUserNotFound
}

func (f *bazaar) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	return nil, nil
}

func (f *bazaar) LedgerSum(ctx context.Context, walletID uint) (int64, error) {
	return 0, nil
}

type fixedTenants struct {
	cfg config.TenantConfig
}

func (p fixedTenants) Get(_ context.Context, _ string) (config.TenantConfig, error) {
	return p.cfg, nil
}

func newMarketService(f *bazaar) *Service {
	cfg := config.TenantConfig{InitialGrant: 500, MarketTaxPct: 10}
	return NewService(f, f, f, fixedTenants{cfg: cfg})
}

func seller() models.Identity {
	return models.Identity{TenantID: "guild-1", PlatformID: "s1", DisplayName: "s1"}
}

func buyer() models.Identity {
	return models.Identity{TenantID: "guild-1", PlatformID: "b1", DisplayName: "b1"}
}

func TestList_EscrowsInventory(t *testing.T) {
	f := newBazaar()
	u := f.seed(seller(), 0, "fishing_rod", 5)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, int64(3), listing.Amount)

	// The escrowed quantity is out of the seller's hands.
	assert.Equal(t, int64(2), f.inventory[invKey(u.ID, "fishing_rod")])
	assert.Contains(t, f.listings, listing.ID)
}

func TestList_Guards(t *testing.T) {
	f := newBazaar()
	f.seed(seller(), 0, "fishing_rod", 2)
	svc := newMarketService(f)

	_, err := svc.List(context.Background(), seller(), "fishing_rod", 0, 1000)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.List(context.Background(), seller(), "fishing_rod", 3, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	assert.ErrorIs(t, err, ErrItemNoLongerAvailable)
	assert.Empty(t, f.listings)
}

func TestBuy_SettlesListing(t *testing.T) {
	f := newBazaar()
	sellerUser := f.seed(seller(), 0, "fishing_rod", 3)
	buyerUser := f.seed(buyer(), 1500, "", 0)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)

	res, err := svc.Buy(context.Background(), buyer(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Paid)
	assert.Equal(t, int64(100), res.Tax)
	assert.Equal(t, int64(500), res.Wallet)

	// Buyer pays the full price, seller keeps price minus tax, the tax
	// leg is burned.
	assert.Equal(t, int64(500), f.balances[buyerUser.Wallet.ID])
	assert.Equal(t, int64(900), f.balances[sellerUser.Wallet.ID])

	// The escrowed quantity lands with the buyer and the listing is gone.
	assert.Equal(t, int64(3), f.inventory[invKey(buyerUser.ID, "fishing_rod")])
	assert.Equal(t, int64(0), f.inventory[invKey(sellerUser.ID, "fishing_rod")])
	assert.Empty(t, f.listings)

	call := f.calls[0]
	require.Len(t, call.Entries, 3)
	assert.Equal(t, models.TransactionTypeMarketPurchase, call.Entries[0].Type)
	assert.Equal(t, int64(-900), call.Entries[0].Amount)
	assert.Equal(t, models.TransactionTypeMarketSale, call.Entries[1].Type)
	assert.Equal(t, int64(900), call.Entries[1].Amount)
	assert.Equal(t, models.TransactionTypeMarketTax, call.Entries[2].Type)
	assert.Equal(t, int64(-100), call.Entries[2].Amount)
	require.Len(t, call.Items, 1)
	assert.Nil(t, call.Items[0].FromUserID)

	_, err = svc.Buy(context.Background(), buyer(), listing.ID)
	assert.ErrorIs(t, err, repositories.ErrListingNotFound)
}

func TestBuy_Guards(t *testing.T) {
	f := newBazaar()
	f.seed(seller(), 0, "fishing_rod", 3)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)

	t.Run("self purchase", func(t *testing.T) {
		_, err := svc.Buy(context.Background(), seller(), listing.ID)
		assert.ErrorIs(t, err, ErrSelfPurchase)
	})

	t.Run("insufficient funds leaves listing open", func(t *testing.T) {
		f.seed(buyer(), 100, "", 0)
		_, err := svc.Buy(context.Background(), buyer(), listing.ID)
		assert.ErrorIs(t, err, settlement.ErrInsufficientFunds)
		assert.Contains(t, f.listings, listing.ID)
	})

	t.Run("other tenant cannot see the listing", func(t *testing.T) {
		other := models.Identity{TenantID: "guild-2", PlatformID: "b1"}
		f.seed(other, 5000, "", 0)
		_, err := svc.Buy(context.Background(), other, listing.ID)
		assert.ErrorIs(t, err, repositories.ErrListingNotFound)
		assert.Contains(t, f.listings, listing.ID)
	})

	t.Run("unknown listing", func(t *testing.T) {
		f.seed(buyer(), 5000, "", 0)
		_, err := svc.Buy(context.Background(), buyer(), "no-such-listing")
		assert.ErrorIs(t, err, repositories.ErrListingNotFound)
	})
}

func TestBuy_FailedSettlementRestoresListing(t *testing.T) {
	f := newBazaar()
	f.seed(seller(), 0, "fishing_rod", 3)
	buyerUser := f.seed(buyer(), 1500, "", 0)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)

	f.failSettle = true
	_, err = svc.Buy(context.Background(), buyer(), listing.ID)
	require.Error(t, err)

	// The claim is rolled back: no money moved and the listing is back.
	assert.Equal(t, int64(1500), f.balances[buyerUser.Wallet.ID])
	assert.Contains(t, f.listings, listing.ID)

	f.failSettle = false
	_, err = svc.Buy(context.Background(), buyer(), listing.ID)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	f := newBazaar()
	u := f.seed(seller(), 0, "fishing_rod", 3)
	f.seed(buyer(), 0, "", 0)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), buyer(), listing.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Contains(t, f.listings, listing.ID)

	err = svc.Cancel(context.Background(), seller(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.inventory[invKey(u.ID, "fishing_rod")])
	assert.Empty(t, f.listings)

	err = svc.Cancel(context.Background(), seller(), listing.ID)
	assert.ErrorIs(t, err, repositories.ErrListingNotFound)
}

func TestCancel_FailedRestockRestoresListing(t *testing.T) {
	f := newBazaar()
	u := f.seed(seller(), 0, "fishing_rod", 3)
	svc := newMarketService(f)

	listing, err := svc.List(context.Background(), seller(), "fishing_rod", 3, 1000)
	require.NoError(t, err)

	f.failRestock = true
	err = svc.Cancel(context.Background(), seller(), listing.ID)
	require.Error(t, err)

	// The escrow stayed a listing instead of vanishing with the failed
	// inventory write.
	assert.Contains(t, f.listings, listing.ID)
	assert.Zero(t, f.inventory[invKey(u.ID, "fishing_rod")])

	f.failRestock = false
	require.NoError(t, svc.Cancel(context.Background(), seller(), listing.ID))
	assert.Equal(t, int64(3), f.inventory[invKey(u.ID, "fishing_rod")])
	assert.Empty(t, f.listings)
}

func TestTrade(t *testing.T) {
	f := newBazaar()
	sellerUser := f.seed(seller(), 0, "fishing_rod", 5)
	buyerUser := f.seed(buyer(), 1000, "", 0)
	svc := newMarketService(f)

	res, err := svc.Trade(context.Background(), seller(), buyer(), "fishing_rod", 2, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Amount)
	assert.Equal(t, int64(600), res.Price)

	// Direct trades carry no tax: the full price moves buyer to seller.
	assert.Equal(t, int64(400), f.balances[buyerUser.Wallet.ID])
	assert.Equal(t, int64(600), f.balances[sellerUser.Wallet.ID])
	assert.Equal(t, int64(3), f.inventory[invKey(sellerUser.ID, "fishing_rod")])
	assert.Equal(t, int64(2), f.inventory[invKey(buyerUser.ID, "fishing_rod")])
}

func TestTrade_Guards(t *testing.T) {
	f := newBazaar()
	f.seed(seller(), 0, "fishing_rod", 1)
	f.seed(buyer(), 1000, "", 0)
	svc := newMarketService(f)

	t.Run("self trade", func(t *testing.T) {
		_, err := svc.Trade(context.Background(), seller(), seller(), "fishing_rod", 1, 100)
		assert.ErrorIs(t, err, ErrSelfPurchase)
	})

	t.Run("stale offer quantity", func(t *testing.T) {
		_, err := svc.Trade(context.Background(), seller(), buyer(), "fishing_rod", 3, 100)
		assert.ErrorIs(t, err, ErrItemNoLongerAvailable)
		assert.Empty(t, f.calls)
	})

	t.Run("buyer cannot pay", func(t *testing.T) {
		_, err := svc.Trade(context.Background(), seller(), buyer(), "fishing_rod", 1, 5000)
		assert.ErrorIs(t, err, settlement.ErrInsufficientFunds)
	})
}
