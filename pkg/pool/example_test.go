// Package pool provides example usage of the pooled scratch arrays.
package pool_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/pool"
)

// Example demonstrates borrowing a scratch index array.
func Example() {
	scratch := pool.GetInts(100)
	defer pool.PutInts(scratch)

	for i := range scratch {
		scratch[i] = i
	}
	fmt.Println(len(scratch), scratch[99])

	// Output:
	// 100 99
}

// ExampleNew shows how to create a custom typed pool.
func ExampleNew() {
	type frame struct{ rows []int }

	frames := pool.New(
		func() *frame { return &frame{rows: make([]int, 0, 16)} },
		func(f *frame) { f.rows = f.rows[:0] },
	)

	f := frames.Get()
	f.rows = append(f.rows, 1, 2, 3)
	fmt.Println(len(f.rows))
	frames.Put(f)

	// Output:
	// 3
}

func TestSlicePoolLengths(t *testing.T) {
	sp := pool.NewSlicePool[int]()
	for _, n := range []int{0, 1, 63, 64, 65, 1000, 1 << 20} {
		s := sp.Get(n)
		require.Len(t, s, n)
		assert.GreaterOrEqual(t, cap(s), n)
		sp.Put(s)
	}
}

func TestSlicePoolOversized(t *testing.T) {
	sp := pool.NewSlicePool[byte]()
	s := sp.Get(1<<24 + 1)
	assert.Len(t, s, 1<<24+1)
	// oversized slices are simply dropped
	sp.Put(s)
}

func TestPoolStats(t *testing.T) {
	p := pool.New(func() []int { return make([]int, 4) }, nil)
	obj := p.Get()
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, int64(1), stats.Borrowed)
	assert.Equal(t, int64(1), stats.Gets)
	p.Put(obj)
	assert.Equal(t, int64(0), p.Stats().Borrowed)
}

func TestConcurrentIntPool(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := pool.GetInts(128 + g)
				s[0] = g
				pool.PutInts(s)
			}
		}(g)
	}
	wg.Wait()
}
