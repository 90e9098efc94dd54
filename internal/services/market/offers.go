package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"casino/internal/models"

	"github.com/google/uuid"
)

var (
	ErrOfferNotFound = errors.New("trade offer not found")
	ErrOfferExpired  = errors.New("trade offer expired")
	ErrNotRecipient  = errors.New("offer is addressed to someone else")
)

// TradeOffer is a pending direct sale awaiting the recipient's answer.
// Offers live in memory only; a restart discards them, which is safe because
// nothing is escrowed until the offer is accepted.
type TradeOffer struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Seller    models.Identity `json:"seller"`
	BuyerID   string          `json:"buyer_id"`
	ItemID    string          `json:"item_id"`
	Amount    int64           `json:"amount"`
	Price     int64           `json:"price"`
	ExpiresAt time.Time       `json:"expires_at"`
}

const defaultOfferTTL = 5 * time.Minute

// OfferBook holds pending trade offers keyed by id.
type OfferBook struct {
	mu     sync.Mutex
	offers map[string]TradeOffer
	ttl    time.Duration
	now    func() time.Time
}

func NewOfferBook() *OfferBook {
	return &OfferBook{
		offers: make(map[string]TradeOffer),
		ttl:    defaultOfferTTL,
		now:    time.Now,
	}
}

// Open records a new offer from seller to the platform user buyerID.
func (b *OfferBook) Open(seller models.Identity, buyerID, itemID string, amount, price int64) (*TradeOffer, error) {
	if amount <= 0 || price <= 0 {
		return nil, ErrInvalidAmount
	}
	if seller.PlatformID == buyerID {
		return nil, ErrSelfPurchase
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purge()

	offer := TradeOffer{
		ID:        uuid.NewString(),
		TenantID:  seller.TenantID,
		Seller:    seller,
		BuyerID:   buyerID,
		ItemID:    itemID,
		Amount:    amount,
		Price:     price,
		ExpiresAt: b.now().Add(b.ttl),
	}
	b.offers[offer.ID] = offer
	return &offer, nil
}

// Take removes and returns the offer if buyer is its recipient. Expired
// offers are treated as declined.
func (b *OfferBook) Take(offerID string, buyer models.Identity) (*TradeOffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[offerID]
	if !ok || offer.TenantID != buyer.TenantID {
		return nil, ErrOfferNotFound
	}
	delete(b.offers, offerID)
	if b.now().After(offer.ExpiresAt) {
		return nil, ErrOfferExpired
	}
	if offer.BuyerID != buyer.PlatformID {
		// Put it back; someone else tried to grab it.
		b.offers[offerID] = offer
		return nil, ErrNotRecipient
	}
	return &offer, nil
}

// Decline lets either party withdraw the offer.
func (b *OfferBook) Decline(offerID string, who models.Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[offerID]
	if !ok || offer.TenantID != who.TenantID {
		return ErrOfferNotFound
	}
	if offer.BuyerID != who.PlatformID && offer.Seller.PlatformID != who.PlatformID {
		return ErrNotRecipient
	}
	delete(b.offers, offerID)
	return nil
}

// purge drops expired offers. Caller holds the lock.
func (b *OfferBook) purge() {
	now := b.now()
	for id, offer := range b.offers {
		if now.After(offer.ExpiresAt) {
			delete(b.offers, id)
		}
	}
}

// Accept resolves an offer through the book and settles it.
func (s *Service) Accept(ctx context.Context, book *OfferBook, offerID string, buyer models.Identity) (*TradeResult, error) {
	offer, err := book.Take(offerID, buyer)
	if err != nil {
		return nil, err
	}
	return s.Trade(ctx, offer.Seller, buyer, offer.ItemID, offer.Amount, offer.Price)
}
