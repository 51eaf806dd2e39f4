package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KentRRhodes/fafo/internal/game/dice"
)

// scriptedSource returns queued values in order, then repeats the last one.
type scriptedSource struct {
	values []int
	idx    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.idx]
	if s.idx < len(s.values)-1 {
		s.idx++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

func TestCryptoSource_Bounds(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(100)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 100)
	}
}

func TestCryptoSource_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestRoller_D100Range(t *testing.T) {
	r := dice.NewRoller(dice.NewCryptoSource(), nil)
	for i := 0; i < 1000; i++ {
		v := r.D100()
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 100)
	}
}

func TestRoller_D100Scripted(t *testing.T) {
	r := dice.NewRoller(&scriptedSource{values: []int{49}}, nil)
	assert.Equal(t, 50, r.D100())
}

func TestRoller_Percent(t *testing.T) {
	// Intn result 49 is below a 50% threshold, success.
	r := dice.NewRoller(&scriptedSource{values: []int{49}}, nil)
	assert.True(t, r.Percent(50))

	// Intn result 50 is not below 50, failure.
	r = dice.NewRoller(&scriptedSource{values: []int{50}}, nil)
	assert.False(t, r.Percent(50))
}

func TestRoller_PercentExtremes(t *testing.T) {
	r := dice.NewRoller(&scriptedSource{values: []int{0}}, nil)
	assert.False(t, r.Percent(0))
	assert.True(t, r.Percent(100))
}
