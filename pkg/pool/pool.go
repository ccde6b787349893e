package pool

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// Pool is a typed sync.Pool with an optional reset hook and usage counters.
// It is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)

	created  atomic.Int64
	borrowed atomic.Int64
	gets     atomic.Int64
}

// Stats are the counters of a Pool.
type Stats struct {
	// Created is the number of objects built by the allocation function.
	Created int64
	// Borrowed is the number of objects taken and not yet returned.
	Borrowed int64
	// Gets is the number of Get calls.
	Gets int64
}

// New creates a pool. alloc builds objects when the pool is empty; reset, if
// not nil, runs on every object handed back to Put.
func New[T any](alloc func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		p.created.Add(1)
		return alloc()
	}
	return p
}

// Get takes an object from the pool or allocates one.
func (p *Pool[T]) Get() T {
	p.gets.Add(1)
	p.borrowed.Add(1)
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.borrowed.Add(-1)
	p.pool.Put(obj)
}

// Stats returns a snapshot of the counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Created:  p.created.Load(),
		Borrowed: p.borrowed.Load(),
		Gets:     p.gets.Load(),
	}
}

// Slices are pooled in power-of-two capacity buckets. Arrays larger than the
// biggest bucket are allocated directly and dropped on Put.
const (
	minBucketShift = 6  // 64 elements
	maxBucketShift = 24 // 16M elements
)

// SlicePool pools slices of T bucketed by capacity.
type SlicePool[T any] struct {
	buckets [maxBucketShift - minBucketShift + 1]*Pool[*[]T]
}

// NewSlicePool creates a bucketed slice pool.
func NewSlicePool[T any]() *SlicePool[T] {
	sp := &SlicePool[T]{}
	for i := range sp.buckets {
		capacity := 1 << (i + minBucketShift)
		sp.buckets[i] = New(
			func() *[]T {
				s := make([]T, 0, capacity)
				return &s
			},
			func(s *[]T) {
				*s = (*s)[:0]
			},
		)
	}
	return sp
}

func bucketFor(n int) int {
	if n <= 1<<minBucketShift {
		return 0
	}
	return bits.Len(uint(n-1)) - minBucketShift
}

// Get returns a slice of length n. The contents are unspecified.
func (sp *SlicePool[T]) Get(n int) []T {
	b := bucketFor(n)
	if b >= len(sp.buckets) {
		return make([]T, n)
	}
	s := sp.buckets[b].Get()
	return (*s)[:n]
}

// Put returns a slice obtained from Get.
func (sp *SlicePool[T]) Put(s []T) {
	c := cap(s)
	if c < 1<<minBucketShift || c&(c-1) != 0 {
		return
	}
	b := bucketFor(c)
	if b >= len(sp.buckets) {
		return
	}
	s = s[:0]
	sp.buckets[b].Put(&s)
}

// Global pools for scratch arrays.
var (
	// IntSlicePool recycles index arrays used by the sorting engine.
	IntSlicePool = NewSlicePool[int]()

	// ByteSlicePool recycles chunk buffers used during ingestion.
	ByteSlicePool = NewSlicePool[byte]()
)

// GetInts returns a scratch []int of length n from the global pool.
func GetInts(n int) []int {
	return IntSlicePool.Get(n)
}

// PutInts returns a scratch []int to the global pool. Safe to call with nil.
func PutInts(s []int) {
	if s != nil {
		IntSlicePool.Put(s)
	}
}

// GetBytes returns a scratch []byte of length n from the global pool.
func GetBytes(n int) []byte {
	return ByteSlicePool.Get(n)
}

// PutBytes returns a scratch []byte to the global pool. Safe to call with nil.
func PutBytes(b []byte) {
	if b != nil {
		ByteSlicePool.Put(b)
	}
}
