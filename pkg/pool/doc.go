// Package pool implements type-safe object pooling for colframe's scratch memory.
//
// Architecture
//
// Pool[T] wraps sync.Pool with allocation statistics and a reset hook.
// SlicePool[T] layers power-of-two capacity buckets on top so callers can ask
// for "a []int of length n" and get back a recycled array whenever one of a
// suitable size is available.
//
// Global Pools
//
//	var (
//		IntSlicePool  = NewSlicePool[int]()  // merge-sort scratch and index arrays
//		ByteSlicePool = NewSlicePool[byte]() // decompressed ingestion chunks
//	)
//
// Usage Patterns
//
//	tmp := pool.GetInts(len(perm))
//	defer pool.PutInts(tmp)
//
// Contents of a pooled slice are unspecified on Get. Callers that need zeroed
// memory must clear it themselves.
package pool
