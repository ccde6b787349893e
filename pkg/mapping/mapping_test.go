package mapping

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/intformats"
)

func TestApplyOutOfRangeIsMissing(t *testing.T) {
	data := []float64{1, 2, 3}
	got := ApplyFloat64(data, []int{2, -1, 0, 3, 1})

	require.Len(t, got, 5)
	assert.Equal(t, 3.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 1.0, got[2])
	assert.True(t, math.IsNaN(got[3]))
	assert.Equal(t, 2.0, got[4])
	assert.Equal(t, []float64{1, 2, 3}, data)
}

func TestApplyInt64AndObjects(t *testing.T) {
	const missing = math.MaxInt64
	assert.Equal(t, []int64{20, missing, 10}, ApplyInt64([]int64{10, 20}, []int{1, 5, 0}, missing))
	assert.Equal(t, []any{"b", nil}, ApplyObjects([]any{"a", "b"}, []int{1, 2}))
}

func TestApplyPacked(t *testing.T) {
	src, err := intformats.NewPackedInts(intformats.UnsignedInt2, 4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		src.Set(i, i)
	}
	got := ApplyPacked(src, []int{3, 3, -2, 1, 9})
	assert.Equal(t, intformats.UnsignedInt2, got.Format())
	values := make([]int, got.Len())
	got.Fill(values, 0)
	assert.Equal(t, []int{3, 3, 0, 1, 0}, values)
}

func TestMerge(t *testing.T) {
	first := []int{0, 2, 5, -1}
	second := []int{7, 8, 9}
	assert.Equal(t, []int{7, 9, -1, -1}, Merge(first, second))
	assert.Empty(t, Merge(nil, second))
}

func TestMergeComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		a := make([]float64, 1+rng.Intn(40))
		for i := range a {
			a[i] = float64(rng.Intn(1000))
		}
		g := make([]int, rng.Intn(50))
		for i := range g {
			g[i] = rng.Intn(len(a)+6) - 3
		}
		f := make([]int, rng.Intn(50))
		for i := range f {
			f[i] = rng.Intn(len(g)+6) - 3
		}

		direct := ApplyFloat64(ApplyFloat64(a, g), f)
		composed := ApplyFloat64(a, Merge(f, g))
		require.Len(t, composed, len(direct))
		for i := range direct {
			if math.IsNaN(direct[i]) {
				assert.True(t, math.IsNaN(composed[i]), "round %d row %d", round, i)
			} else {
				assert.Equal(t, direct[i], composed[i], "round %d row %d", round, i)
			}
		}
	}
}

func TestIdentity(t *testing.T) {
	id := Identity(4)
	assert.Equal(t, []int{0, 1, 2, 3}, id)
	assert.True(t, IsIdentity(id, 4))
	assert.False(t, IsIdentity(id, 5))
	assert.False(t, IsIdentity([]int{1, 0}, 2))
}
