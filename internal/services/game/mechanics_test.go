package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinflip(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	t.Run("invalid choice", func(t *testing.T) {
		_, _, err := Coinflip(r, "edge")
		assert.ErrorIs(t, err, ErrInvalidChoice)
	})

	t.Run("outcome is consistent with the flip", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			side, won, err := Coinflip(r, SideHeads)
			require.NoError(t, err)
			assert.Contains(t, []string{SideHeads, SideTails}, side)
			assert.Equal(t, side == SideHeads, won)
		}
	})
}

func TestRollDice(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		player, house, won := RollDice(r)
		assert.GreaterOrEqual(t, player, 1)
		assert.LessOrEqual(t, player, 6)
		assert.GreaterOrEqual(t, house, 1)
		assert.LessOrEqual(t, house, 6)
		// Ties lose.
		assert.Equal(t, player > house, won)
	}
}

func TestSpinSlots(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		reels, multiplier := SpinSlots(r)
		switch {
		case reels[0] == reels[1] && reels[1] == reels[2]:
			assert.Equal(t, slotPaytable[reels[0]], multiplier)
		case reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2]:
			assert.Equal(t, int64(2), multiplier)
		default:
			assert.Zero(t, multiplier)
		}
	}
}
