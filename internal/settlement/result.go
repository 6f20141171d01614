// Package settlement matches wagers against an official draw result.
package settlement

import (
	"sort"

	"github.com/alanyoungcy/lottodesk/internal/domain"
)

// NewResult validates a submitted result and derives the remaining fields.
// An empty top2 defaults to the last two digits of top3.
func NewResult(top3, top2, bottom2 string) (domain.DrawResult, error) {
	if !domain.IsDigits(top3, 3) {
		return domain.DrawResult{}, domain.Validationf("three_top %q must be 3 digits", top3)
	}
	if top2 == "" {
		top2 = top3[1:]
	}
	if !domain.IsDigits(top2, 2) {
		return domain.DrawResult{}, domain.Validationf("two_top %q must be 2 digits", top2)
	}
	if !domain.IsDigits(bottom2, 2) {
		return domain.DrawResult{}, domain.Validationf("two_bottom %q must be 2 digits", bottom2)
	}
	return domain.DrawResult{
		ThreeTop:  top3,
		TwoTop:    top2,
		TwoBottom: bottom2,
		ThreeTod:  Permutations(top3),
	}, nil
}

// Permutations returns the distinct orderings of the characters of s in
// ascending order. Repeated characters collapse: "112" yields 3 entries.
func Permutations(s string) []string {
	seen := make(map[string]struct{})
	b := []byte(s)
	var permute func(k int)
	permute = func(k int) {
		if k == len(b) {
			seen[string(b)] = struct{}{}
			return
		}
		for i := k; i < len(b); i++ {
			b[k], b[i] = b[i], b[k]
			permute(k + 1)
			b[k], b[i] = b[i], b[k]
		}
	}
	permute(0)

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
