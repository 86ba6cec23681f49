// Package perm provides small helpers for index permutations.
//
// A reading order is represented as a permutation: order[k] is the index of
// the detection read k-th. The helpers here build, check and invert such
// slices and apply them to parallel arrays without aliasing the input.
package perm

// Seq returns a slice containing the sequence [0, 1, 2, ..., n-1].
// This is the identity permutation, used whenever a page is returned
// unreordered.
//
// For n <= 0, Seq returns an empty slice.
func Seq(n int) []int {
	if n < 0 {
		n = 0
	}
	result := make([]int, n)
	for i := range result {
		result[i] = i
	}
	return result
}

// IsPermutation reports whether order contains every index in [0, n)
// exactly once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// Inverse returns the inverse permutation: Inverse(order)[order[k]] == k.
// The result is only meaningful when order is a valid permutation.
func Inverse(order []int) []int {
	inv := make([]int, len(order))
	for k, i := range order {
		inv[i] = k
	}
	return inv
}

// Apply returns a new slice with out[k] = src[order[k]].
// The caller must ensure order is a permutation of src's indices.
func Apply[T any](src []T, order []int) []T {
	out := make([]T, len(order))
	for k, i := range order {
		out[k] = src[i]
	}
	return out
}
