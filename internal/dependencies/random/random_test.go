package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntnStaysInRange(t *testing.T) {
	r := New()
	for range 1000 {
		n := r.Intn(7)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 7)
	}
	assert.Equal(t, 0, r.Intn(0))
	assert.Equal(t, 0, r.Intn(-3))
}

func TestStringUsesAlphabet(t *testing.T) {
	r := New()
	s := r.String(32, "AB")
	assert.Len(t, s, 32)
	assert.Empty(t, strings.Trim(s, "AB"))
	assert.Empty(t, r.String(5, ""))
}

func TestShuffleIsAPermutation(t *testing.T) {
	r := New()
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, items)
}

func TestFisherYatesDrawsEachStep(t *testing.T) {
	var bounds []int
	FisherYates(func(n int) int {
		bounds = append(bounds, n)
		return 0
	}, 4, func(i, j int) {})
	assert.Equal(t, []int{4, 3, 2}, bounds)
}
