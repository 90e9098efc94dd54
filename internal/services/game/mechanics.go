package game

import (
	"math/rand"
)

// Coinflip sides
const (
	SideHeads = "heads"
	SideTails = "tails"
)

// Coinflip flips; a correct call pays 2x the bet.
func Coinflip(r *rand.Rand, choice string) (side string, won bool, err error) {
	if choice != SideHeads && choice != SideTails {
		return "", false, ErrInvalidChoice
	}
	side = SideTails
	if r.Intn(2) == 0 {
		side = SideHeads
	}
	return side, side == choice, nil
}

// RollDice rolls against the house: both roll 1-6, the higher roll wins and
// pays 2x. Ties lose.
func RollDice(r *rand.Rand) (player, house int, won bool) {
	player = 1 + r.Intn(6)
	house = 1 + r.Intn(6)
	return player, house, player > house
}

var slotReel = []string{"cherry", "lemon", "grape", "bell", "seven"}

// slotPaytable maps a tripled symbol to its payout multiplier.
var slotPaytable = map[string]int64{
	"cherry": 3,
	"lemon":  4,
	"grape":  5,
	"bell":   10,
	"seven":  25,
}

// SpinSlots spins three reels. Three of a kind pays the paytable multiplier,
// any pair pays 2x, otherwise the bet is lost.
func SpinSlots(r *rand.Rand) (reels [3]string, multiplier int64) {
	for i := range reels {
		reels[i] = slotReel[r.Intn(len(slotReel))]
	}
	switch {
	case reels[0] == reels[1] && reels[1] == reels[2]:
		return reels, slotPaytable[reels[0]]
	case reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2]:
		return reels, 2
	default:
		return reels, 0
	}
}
