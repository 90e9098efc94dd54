package game

import (
	"math/rand"
	"time"
)

// Blackjack session states.
type BlackjackState string

const (
	StateDealing    BlackjackState = "DEALING"
	StatePlayerTurn BlackjackState = "PLAYER_TURN"
	StateDealerTurn BlackjackState = "DEALER_TURN"
	StateSettled    BlackjackState = "SETTLED"
)

// Dealer draws until reaching 17 or better.
const dealerStandsAt = 17

// Card ranks; suits carry no value and are omitted.
var blackjackRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// BlackjackOutcome is the pure result fed into settlement once a session
// reaches SETTLED.
type BlackjackOutcome struct {
	Won     bool
	Push    bool
	Natural bool
	Payout  int64 // proposed payout relative to the final bet
}

// BlackjackSession is a short-lived per-player state machine. It holds no
// money; the bet is only debited when the session settles, which is why a
// timed-out session can be forfeited with no settlement call.
type BlackjackSession struct {
	ID       string
	Owner    string // platform id of the player
	WalletID uint
	TenantID string
	Bet      int64
	Player   []string
	Dealer   []string
	State    BlackjackState
	HitTaken bool
	Doubled  bool
	Deadline time.Time
	Outcome  *BlackjackOutcome

	deck []string
	rng  *rand.Rand
}

// NewBlackjackSession deals the opening hands. A natural 21 short-circuits
// straight to SETTLED: push when the dealer also holds 21, otherwise a 2.5x
// payout.
func NewBlackjackSession(id, tenantID, owner string, walletID uint, bet int64, rng *rand.Rand, turnTimeout time.Duration) *BlackjackSession {
	s := &BlackjackSession{
		ID:       id,
		Owner:    owner,
		WalletID: walletID,
		TenantID: tenantID,
		Bet:      bet,
		State:    StateDealing,
		Deadline: time.Now().Add(turnTimeout),
		rng:      rng,
	}
	s.deck = newDeck(rng)
	s.Player = append(s.Player, s.draw(), s.draw())
	s.Dealer = append(s.Dealer, s.draw(), s.draw())

	if HandValue(s.Player) == 21 {
		if HandValue(s.Dealer) == 21 {
			s.settle(BlackjackOutcome{Push: true, Natural: true})
		} else {
			s.settle(BlackjackOutcome{Won: true, Natural: true, Payout: bet * 5 / 2})
		}
		return s
	}
	s.State = StatePlayerTurn
	return s
}

// Hit draws one card. Busting settles the session with zero payout;
// otherwise the player keeps the turn.
func (s *BlackjackSession) Hit() error {
	if s.State != StatePlayerTurn {
		return ErrNotYourTurn
	}
	s.HitTaken = true
	s.Player = append(s.Player, s.draw())
	if HandValue(s.Player) > 21 {
		s.settle(BlackjackOutcome{})
	}
	return nil
}

// Stand hands the round to the dealer, who draws to 17 or better, then the
// session settles.
func (s *BlackjackSession) Stand() error {
	if s.State != StatePlayerTurn {
		return ErrNotYourTurn
	}
	s.State = StateDealerTurn
	s.playDealer()
	return nil
}

// Double doubles the bet, draws exactly one card, and ends the player's
// participation. Only allowed before any hit.
func (s *BlackjackSession) Double() error {
	if s.State != StatePlayerTurn {
		return ErrNotYourTurn
	}
	if s.HitTaken {
		return ErrDoubleAfterHit
	}
	s.Doubled = true
	s.Bet *= 2
	s.Player = append(s.Player, s.draw())
	if HandValue(s.Player) > 21 {
		s.settle(BlackjackOutcome{})
		return nil
	}
	s.State = StateDealerTurn
	s.playDealer()
	return nil
}

// Expired reports whether the player let the turn clock run out.
func (s *BlackjackSession) Expired(now time.Time) bool {
	return s.State != StateSettled && now.After(s.Deadline)
}

func (s *BlackjackSession) playDealer() {
	for HandValue(s.Dealer) < dealerStandsAt {
		s.Dealer = append(s.Dealer, s.draw())
	}
	player, dealer := HandValue(s.Player), HandValue(s.Dealer)
	switch {
	case dealer > 21 || player > dealer:
		s.settle(BlackjackOutcome{Won: true, Payout: s.Bet * 2})
	case player == dealer:
		s.settle(BlackjackOutcome{Push: true})
	default:
		s.settle(BlackjackOutcome{})
	}
}

func (s *BlackjackSession) settle(o BlackjackOutcome) {
	s.State = StateSettled
	s.Outcome = &o
}

func (s *BlackjackSession) draw() string {
	if len(s.deck) == 0 {
		s.deck = newDeck(s.rng)
	}
	card := s.deck[len(s.deck)-1]
	s.deck = s.deck[:len(s.deck)-1]
	return card
}

func newDeck(rng *rand.Rand) []string {
	deck := make([]string, 0, 52)
	for i := 0; i < 4; i++ {
		deck = append(deck, blackjackRanks...)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// HandValue scores a blackjack hand, downgrading aces from 11 to 1 while the
// hand would bust.
func HandValue(hand []string) int {
	total, aces := 0, 0
	for _, rank := range hand {
		switch rank {
		case "A":
			total += 11
			aces++
		case "K", "Q", "J", "10":
			total += 10
		default:
			// ranks 2-9
			total += int(rank[0] - '0')
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
