package tokens

import "math/rand/v2"

// sampleIndices picks k of n indices, one from each of k equal-width
// buckets. The result depends only on n, k and seed.
func sampleIndices(n, k int, seed uint64) []int {
	if k <= 0 || k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	indices := make([]int, k)
	for i := 0; i < k; i++ {
		lo := i * n / k
		hi := (i + 1) * n / k
		indices[i] = lo + rng.IntN(hi-lo)
	}
	return indices
}

// CeilDiv returns ceil(a / b) for non-negative a and positive b.
func CeilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	if b <= 1 {
		return a
	}
	return (a + b - 1) / b
}
