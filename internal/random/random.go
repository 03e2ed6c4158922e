package random

import "math/rand/v2"

// Source yields uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default is backed by the runtime-seeded global generator.
var Default Source = globalSource{}

// NewSeeded returns a reproducible Source, used by tests and replays.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.IntN(len(items))], true
}

// AssignNumbers gives every key a distinct number in [1, len(keys)].
// Each draw is rejected until it hits an unused number, so the result is a
// uniform permutation regardless of the order of keys.
func AssignNumbers[K comparable](src Source, keys []K) map[K]int {
	n := len(keys)
	numbers := make(map[K]int, n)
	used := make(map[int]bool, n)

	for _, key := range keys {
		var number int
		for {
			number = src.IntN(n) + 1
			if !used[number] {
				break
			}
		}
		used[number] = true
		numbers[key] = number
	}
	return numbers
}
