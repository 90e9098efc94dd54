package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/repositories"
	"casino/internal/services/cooldown"
	"casino/internal/services/economy"
	"casino/internal/services/settlement"

	"github.com/google/uuid"
)

// ErrSessionNotOwned rejects play on someone else's session.
var ErrSessionNotOwned = errors.New("session belongs to another player")

// PlayResult is the outcome of a single-roll game.
type PlayResult struct {
	Game    string      `json:"game"`
	Won     bool        `json:"won"`
	Payout  int64       `json:"payout"`
	Balance int64       `json:"balance"`
	Detail  models.JSON `json:"detail"`
}

// BlackjackView is the session snapshot returned to the adapter. The dealer's
// hole card stays hidden until the player's turn is over.
type BlackjackView struct {
	SessionID   string            `json:"session_id"`
	State       BlackjackState    `json:"state"`
	Bet         int64             `json:"bet"`
	Player      []string          `json:"player"`
	PlayerValue int               `json:"player_value"`
	Dealer      []string          `json:"dealer"`
	DealerValue int               `json:"dealer_value,omitempty"`
	Outcome     *BlackjackOutcome `json:"outcome,omitempty"`
	Payout      int64             `json:"payout"`
	Balance     int64             `json:"balance,omitempty"`
}

type Service struct {
	accounts  repositories.AccountRepository
	settler   Settler
	cooldowns cooldown.Guard
	tenants   config.TenantProvider
	sessions  *SessionStore

	turnTimeout time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(accounts repositories.AccountRepository, settler Settler, cooldowns cooldown.Guard, tenants config.TenantProvider) *Service {
	if accounts == nil {
		panic("accounts repository is required")
	}
	if settler == nil {
		panic("settler is required")
	}
	return &Service{
		accounts:    accounts,
		settler:     settler,
		cooldowns:   cooldowns,
		tenants:     tenants,
		sessions:    NewSessionStore(),
		turnTimeout: 60 * time.Second,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// prepare resolves the player, enforces the game cooldown and the bet
// precondition. Nothing is debited here; the settlement call at resolution
// time enforces funds atomically.
func (s *Service) prepare(ctx context.Context, ident models.Identity, gameName string, bet int64) (*models.Wallet, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	cfg, err := s.tenants.Get(ctx, ident.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant config: %w", err)
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
	if wallet.Balance < bet {
		return nil, settlement.ErrInsufficientFunds
	}

	remaining, err := s.cooldowns.Check(ctx, cooldown.Key{
		TenantID: ident.TenantID,
		UserID:   ident.PlatformID,
		Activity: gameName,
	}, cfg.GameCooldown(gameName))
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, &economy.CooldownError{Activity: gameName, Remaining: remaining}
	}
	return wallet, nil
}

// PlayCoinflip bets on heads or tails; a correct call pays double.
func (s *Service) PlayCoinflip(ctx context.Context, ident models.Identity, bet int64, choice string) (*PlayResult, error) {
	wallet, err := s.prepare(ctx, ident, "coinflip", bet)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	side, won, err := Coinflip(s.rng, choice)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	payout := int64(0)
	if won {
		payout = bet * 2
	}
	applied, balance, err := Settle(ctx, s.settler, ident.TenantID, wallet.ID, "coinflip", bet, won, payout)
	if err != nil {
		return nil, err
	}
	return &PlayResult{
		Game:    "coinflip",
		Won:     won,
		Payout:  applied,
		Balance: balance,
		Detail:  models.JSON{"side": side, "choice": choice},
	}, nil
}

// PlayDice rolls against the house; the higher roll wins double, ties lose.
func (s *Service) PlayDice(ctx context.Context, ident models.Identity, bet int64) (*PlayResult, error) {
	wallet, err := s.prepare(ctx, ident, "dice", bet)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	player, house, won := RollDice(s.rng)
	s.rngMu.Unlock()

	payout := int64(0)
	if won {
		payout = bet * 2
	}
	applied, balance, err := Settle(ctx, s.settler, ident.TenantID, wallet.ID, "dice", bet, won, payout)
	if err != nil {
		return nil, err
	}
	return &PlayResult{
		Game:    "dice",
		Won:     won,
		Payout:  applied,
		Balance: balance,
		Detail:  models.JSON{"player": player, "house": house},
	}, nil
}

// PlaySlots spins the three reels against the paytable.
func (s *Service) PlaySlots(ctx context.Context, ident models.Identity, bet int64) (*PlayResult, error) {
	wallet, err := s.prepare(ctx, ident, "slots", bet)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	reels, multiplier := SpinSlots(s.rng)
	s.rngMu.Unlock()

	won := multiplier > 0
	applied, balance, err := Settle(ctx, s.settler, ident.TenantID, wallet.ID, "slots", bet, won, bet*multiplier)
	if err != nil {
		return nil, err
	}
	return &PlayResult{
		Game:    "slots",
		Won:     won,
		Payout:  applied,
		Balance: balance,
		Detail:  models.JSON{"reels": reels, "multiplier": multiplier},
	}, nil
}

// StartBlackjack deals a new session. A natural 21 settles immediately.
func (s *Service) StartBlackjack(ctx context.Context, ident models.Identity, bet int64) (*BlackjackView, error) {
	wallet, err := s.prepare(ctx, ident, "blackjack", bet)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	session := NewBlackjackSession(uuid.NewString(), ident.TenantID, ident.PlatformID, wallet.ID, bet, s.rng, s.turnTimeout)
	s.rngMu.Unlock()

	if session.State == StateSettled {
		return s.resolve(ctx, session)
	}
	s.sessions.Put(session)
	return s.view(session, 0, 0), nil
}

// BlackjackHit draws one card on the caller's session.
func (s *Service) BlackjackHit(ctx context.Context, ident models.Identity, sessionID string) (*BlackjackView, error) {
	return s.advance(ctx, ident, sessionID, func(session *BlackjackSession) error {
		return session.Hit()
	})
}

// BlackjackStand ends the player's turn and lets the dealer play out.
func (s *Service) BlackjackStand(ctx context.Context, ident models.Identity, sessionID string) (*BlackjackView, error) {
	return s.advance(ctx, ident, sessionID, func(session *BlackjackSession) error {
		return session.Stand()
	})
}

// BlackjackDouble doubles down: double bet, one card, done.
func (s *Service) BlackjackDouble(ctx context.Context, ident models.Identity, sessionID string) (*BlackjackView, error) {
	return s.advance(ctx, ident, sessionID, func(session *BlackjackSession) error {
		return session.Double()
	})
}

func (s *Service) advance(ctx context.Context, ident models.Identity, sessionID string, action func(*BlackjackSession) error) (*BlackjackView, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Owner != ident.PlatformID || session.TenantID != ident.TenantID {
		return nil, ErrSessionNotOwned
	}
	if err := action(session); err != nil {
		return nil, err
	}
	if session.State == StateSettled {
		s.sessions.Remove(session.ID)
		return s.resolve(ctx, session)
	}
	session.Deadline = time.Now().Add(s.turnTimeout)
	return s.view(session, 0, 0), nil
}

// resolve turns a SETTLED session into exactly one settlement call. A push
// moves no money and makes no call.
func (s *Service) resolve(ctx context.Context, session *BlackjackSession) (*BlackjackView, error) {
	o := session.Outcome
	if o.Push {
		return s.view(session, 0, 0), nil
	}
	applied, balance, err := Settle(ctx, s.settler, session.TenantID, session.WalletID, "blackjack", session.Bet, o.Won, o.Payout)
	if err != nil {
		return nil, err
	}
	return s.view(session, applied, balance), nil
}

func (s *Service) view(session *BlackjackSession, payout, balance int64) *BlackjackView {
	v := &BlackjackView{
		SessionID:   session.ID,
		State:       session.State,
		Bet:         session.Bet,
		Player:      session.Player,
		PlayerValue: HandValue(session.Player),
		Payout:      payout,
		Balance:     balance,
		Outcome:     session.Outcome,
	}
	if session.State == StateSettled {
		v.Dealer = session.Dealer
		v.DealerValue = HandValue(session.Dealer)
	} else {
		// Hole card stays hidden mid-hand.
		v.Dealer = []string{session.Dealer[0], "?"}
	}
	return v
}
