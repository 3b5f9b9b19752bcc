package runpod

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// normalizeForMatch folds case and collapses every run of non-alphanumeric
// characters to a single space, so "nvidia-a100" and "NVIDIA A100" compare
// equal.
func normalizeForMatch(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	inSep := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if inSep && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSep = false
			b.WriteRune(r)
		} else {
			inSep = true
		}
	}
	return b.String()
}

// suggestGPUTypes ranks catalog ids by similarity to the given string and
// returns up to k suggestions mapped back to their original ids. An exact
// match after normalization short-circuits to that single id.
func suggestGPUTypes(given string, validIDs []string, k int) []string {
	givenN := normalizeForMatch(given)

	type candidate struct {
		id    string
		norm  string
		score float64
	}
	// Ids sharing a normalized form collapse to one candidate; the last
	// occurrence supplies the id, the first fixes the position.
	pos := make(map[string]int, len(validIDs))
	candidates := make([]candidate, 0, len(validIDs))
	for _, id := range validIDs {
		norm := normalizeForMatch(id)
		if i, ok := pos[norm]; ok {
			candidates[i].id = id
			continue
		}
		pos[norm] = len(candidates)
		candidates = append(candidates, candidate{id: id, norm: norm})
	}
	if i, ok := pos[givenN]; ok {
		return []string{candidates[i].id}
	}

	for i := range candidates {
		candidates[i].score = similarity(givenN, candidates[i].norm)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.id)
	}
	return out
}

// similarity is a difflib-style ratio in [0, 1] over individual characters.
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
