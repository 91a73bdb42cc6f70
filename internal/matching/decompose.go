package matching

import (
	"sort"
	"strings"

	"menuscan/internal/models"
)

// typeRank orders modifier types for decomposition. Brand/emotional prefixes
// peel first; taste and size last among the included types. Ingredient tokens
// are core to dish identity and are excluded from decomposition entirely.
var typeRank = map[models.ModifierType]int{
	models.ModifierEmotion:    1,
	models.ModifierCooking:    2,
	models.ModifierGrade:      3,
	models.ModifierOrigin:     4,
	models.ModifierTaste:      5,
	models.ModifierSize:       6,
	models.ModifierIngredient: 99,
}

func rankOf(t models.ModifierType) int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return 50
}

// sortForDecomposition orders candidates by type rank, then token length
// descending (so longer tokens win over their own substrings), then declared
// priority descending. The sort is stable so lexicon ordering breaks any
// remaining ties deterministically.
func sortForDecomposition(modifiers []models.Modifier) []models.Modifier {
	sorted := make([]models.Modifier, len(modifiers))
	copy(sorted, modifiers)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := rankOf(a.Type), rankOf(b.Type); ra != rb {
			return ra < rb
		}
		if la, lb := len([]rune(a.Text)), len([]rune(b.Text)); la != lb {
			return la > lb
		}
		return a.Priority > b.Priority
	})
	return sorted
}

// decomposeStep strips the first applicable candidate from remaining and
// returns the new remainder, the applied modifier, and the candidates still
// eligible for later steps. A candidate is skipped when its token does not
// occur in the remainder or when stripping it would leave nothing; skipped
// candidates are not retried. Returns a nil modifier when no candidate
// applies.
func decomposeStep(remaining string, candidates []models.Modifier) (string, *models.Modifier, []models.Modifier) {
	for i := range candidates {
		m := candidates[i]
		if !strings.Contains(remaining, m.Text) {
			continue
		}

		stripped := strings.TrimSpace(strings.Replace(remaining, m.Text, "", 1))
		if stripped == "" {
			continue
		}

		return stripped, &m, candidates[i+1:]
	}
	return remaining, nil, nil
}
