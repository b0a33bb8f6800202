package utils

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

// ParseProfileSelection parses "1-5 7 9-10" into sorted unique profile
// numbers. Invalid parts are returned separately for logging.
func ParseProfileSelection(expr string) (profiles []int, invalid []string) {
	seen := make(map[int]struct{})
	add := func(n int) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			profiles = append(profiles, n)
		}
	}

	for _, part := range strings.FieldsFunc(expr, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, errA := strconv.Atoi(lo)
			b, errB := strconv.Atoi(hi)
			if errA != nil || errB != nil || a > b || a < 0 {
				invalid = append(invalid, part)
				continue
			}
			for n := a; n <= b; n++ {
				add(n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			invalid = append(invalid, part)
			continue
		}
		add(n)
	}
	sort.Ints(profiles)
	return profiles, invalid
}

// Shuffle перемешивает срез на месте.
func Shuffle[T any](items []T) {
	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}
