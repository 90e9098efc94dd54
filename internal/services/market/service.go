// Package market implements escrowed listings and direct peer trades. Listing
// creation escrows inventory; a buy is one settlement call carrying both
// balance deltas and the item transfer out of escrow.
package market

import (
	"context"
	"errors"
	"fmt"
	"log"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/settlement"

	"github.com/google/uuid"
)

// Service errors
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNotOwner              = errors.New("not the listing owner")
	ErrSelfPurchase          = errors.New("cannot buy your own listing")
	ErrItemNoLongerAvailable = errors.New("item no longer available")
)

// Settler commits one settlement request.
type Settler interface {
	Execute(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

type Service struct {
	market   repositories.MarketRepository
	accounts repositories.AccountRepository
	settler  Settler
	tenants  config.TenantProvider
}

func NewService(market repositories.MarketRepository, accounts repositories.AccountRepository, settler Settler, tenants config.TenantProvider) *Service {
	if market == nil {
		panic("market repository is required")
	}
	if accounts == nil {
		panic("accounts repository is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	return &Service{market: market, accounts: accounts, settler: settler, tenants: tenants}
}

// List escrows the quantity out of the seller's inventory and creates the
// listing. Insufficient inventory rejects before anything is written.
func (s *Service) List(ctx context.Context, seller models.Identity, itemID string, amount, totalPrice int64) (*models.MarketListing, error) {
	if amount <= 0 || totalPrice <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := s.tenants.Get(ctx, seller.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
	}
	user, err := s.accounts.GetOrCreateUser(ctx, seller.TenantID, seller.PlatformID, seller.DisplayName, cfg.InitialGrant)
	if err != nil {
		return nil, err
	}

	listing := &models.MarketListing{
		ID:         uuid.NewString(),
		TenantID:   seller.TenantID,
		SellerID:   user.ID,
		ShopItemID: itemID,
		Amount:     amount,
		TotalPrice: totalPrice,
	}
	if err := s.market.CreateListingEscrow(ctx, listing); err != nil {
		if errors.Is(err, repositories.ErrInventoryShort) {
			return nil, ErrItemNoLongerAvailable
		}
		return nil, err
	}
	return listing, nil
}

// BuyResult reports a completed purchase.
type BuyResult struct {
	Listing models.MarketListing `json:"listing"`
	Paid    int64                `json:"paid"`
	Tax     int64                `json:"tax"`
	Wallet  int64                `json:"wallet"`
}

// Buy settles a listing: the buyer pays the full price, the seller receives
// price minus tax, the tax is burned, and the escrowed quantity moves to the
// buyer. The listing is claimed by a conditional delete before the settlement
// so two buyers cannot race it; a failed settlement restores the listing.
func (s *Service) Buy(ctx context.Context, buyer models.Identity, listingID string) (*BuyResult, error) {
	cfg, err := s.tenants.Get(ctx, buyer.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
	}
	buyerUser, err := s.accounts.GetOrCreateUser(ctx, buyer.TenantID, buyer.PlatformID, buyer.DisplayName, cfg.InitialGrant)
	if err != nil {
		return nil, err
	}

	listing, err := s.market.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.TenantID != buyer.TenantID {
		return nil, repositories.ErrListingNotFound
	}
	if listing.SellerID == buyerUser.ID {
		return nil, ErrSelfPurchase
	}

	buyerWallet := buyerUser.Wallet
	if buyerWallet == nil {
		buyerWallet, err = s.accounts.GetWalletByUser(ctx, buyerUser.ID)
		if err != nil {
			return nil, err
		}
	}
	// Funds precheck keeps a broke buyer from ever touching the listing; the
	// settlement below still enforces the same condition atomically.
	if buyerWallet.Balance < listing.TotalPrice {
		return nil, settlement.ErrInsufficientFunds
	}
	sellerWallet, err := s.accounts.GetWalletByUser(ctx, listing.SellerID)
	if err != nil {
		return nil, err
	}

	won, err := s.market.ClaimListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrItemNoLongerAvailable
	}

	tax := listing.TotalPrice * cfg.MarketTaxPct / 100
	net := listing.TotalPrice - tax
	meta := models.JSON{"listing_id": listing.ID, "item": listing.ShopItemID}

	entries := []settlement.Entry{
		{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: buyerWallet.ID},
			WalletID: buyerWallet.ID,
			Type:     models.TransactionTypeMarketPurchase,
			Amount:   -net,
			Metadata: meta,
		},
		{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: sellerWallet.ID},
			WalletID: sellerWallet.ID,
			Type:     models.TransactionTypeMarketSale,
			Amount:   net,
			Metadata: meta,
		},
	}
	if tax > 0 {
		// The tax leg debits the buyer and credits nobody: burned.
		entries = append(entries, settlement.Entry{
			Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: buyerWallet.ID},
			WalletID: buyerWallet.ID,
			Type:     models.TransactionTypeMarketTax,
			Amount:   -tax,
			Metadata: meta,
		})
	}

	res, err := s.settler.Execute(ctx, settlement.Request{
		TenantID: buyer.TenantID,
		Entries:  entries,
		Items: []settlement.ItemMove{{
			// From escrow: the quantity left the seller's inventory at
			// listing time.
			ToUserID:   &buyerUser.ID,
			ShopItemID: listing.ShopItemID,
			Amount:     listing.Amount,
		}},
	})
	if err != nil {
		if rerr := s.market.RestoreListing(ctx, listing); rerr != nil {
			log.Printf("market: failed to restore listing %s after settlement error: %v", listing.ID, rerr)
		}
		return nil, err
	}

	return &BuyResult{
		Listing: *listing,
		Paid:    listing.TotalPrice,
		Tax:     tax,
		Wallet:  res.Balances[settlement.AccountRef{Kind: settlement.KindWallet, ID: buyerWallet.ID}],
	}, nil
}

// Cancel returns the escrowed quantity to the seller and removes the listing.
func (s *Service) Cancel(ctx context.Context, seller models.Identity, listingID string) error {
	user, err := s.accounts.GetUser(ctx, seller.TenantID, seller.PlatformID)
	if err != nil {
		return err
	}
	listing, err := s.market.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != user.ID {
		return ErrNotOwner
	}

	won, err := s.market.ClaimListing(ctx, listingID)
	if err != nil {
		return err
	}
	if !won {
		return ErrItemNoLongerAvailable
	}
	if err := s.market.AddInventory(ctx, listing.TenantID, listing.SellerID, listing.ShopItemID, listing.Amount); err != nil {
		// The claim already removed the listing. Put it back so the escrowed
		// quantity still exists somewhere.
		if rerr := s.market.RestoreListing(ctx, listing); rerr != nil {
			log.Printf("market: failed to restore listing %s after cancel error: %v", listing.ID, rerr)
		}
		return err
	}
	return nil
}

// Listings pages the tenant's open listings.
func (s *Service) Listings(ctx context.Context, tenantID string, limit, offset int) ([]models.MarketListing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.market.ListingsByTenant(ctx, tenantID, limit, offset)
}

// TradeResult reports a completed direct trade.
type TradeResult struct {
	ItemID string `json:"item_id"`
	Amount int64  `json:"amount"`
	Price  int64  `json:"price"`
}

// Trade settles a direct peer sale: buyer pays price to seller, quantity
// moves seller to buyer, no tax, no listing. The seller's holding is
// re-verified at execution time; a short inventory fails the trade before
// any money moves.
func (s *Service) Trade(ctx context.Context, seller, buyer models.Identity, itemID string, amount, price int64) (*TradeResult, error) {
	if amount <= 0 || price <= 0 {
		return nil, ErrInvalidAmount
	}
	if seller.PlatformID == buyer.PlatformID {
		return nil, ErrSelfPurchase
	}
	cfg, err := s.tenants.Get(ctx, seller.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
	}
	sellerUser, err := s.accounts.GetUser(ctx, seller.TenantID, seller.PlatformID)
	if err != nil {
		return nil, err
	}
	buyerUser, err := s.accounts.GetOrCreateUser(ctx, buyer.TenantID, buyer.PlatformID, buyer.DisplayName, cfg.InitialGrant)
	if err != nil {
		return nil, err
	}

	// Execution-time re-verify: the offer may be stale.
	slot, err := s.market.GetInventory(ctx, sellerUser.ID, itemID)
	if err != nil || slot.Amount < amount {
		return nil, ErrItemNoLongerAvailable
	}

	sellerWallet, err := s.accounts.GetWalletByUser(ctx, sellerUser.ID)
	if err != nil {
		return nil, err
	}
	buyerWallet := buyerUser.Wallet
	if buyerWallet == nil {
		buyerWallet, err = s.accounts.GetWalletByUser(ctx, buyerUser.ID)
		if err != nil {
			return nil, err
		}
	}

	meta := models.JSON{"item": itemID, "amount": amount}
	_, err = s.settler.Execute(ctx, settlement.Request{
		TenantID: seller.TenantID,
		Entries: []settlement.Entry{
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: buyerWallet.ID},
				WalletID: buyerWallet.ID,
				Type:     models.TransactionTypeTrade,
				Amount:   -price,
				Metadata: meta,
			},
			{
				Account:  settlement.AccountRef{Kind: settlement.KindWallet, ID: sellerWallet.ID},
				WalletID: sellerWallet.ID,
				Type:     models.TransactionTypeTrade,
				Amount:   price,
				Metadata: meta,
			},
		},
		Items: []settlement.ItemMove{{
			FromUserID: &sellerUser.ID,
			ToUserID:   &buyerUser.ID,
			ShopItemID: itemID,
			Amount:     amount,
		}},
	})
	if err != nil {
		if errors.Is(err, settlement.ErrItemNoLongerAvailable) {
			return nil, ErrItemNoLongerAvailable
		}
		return nil, err
	}
	return &TradeResult{ItemID: itemID, Amount: amount, Price: price}, nil
}
