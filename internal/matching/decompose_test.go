package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuscan/internal/models"
)

func TestSortForDecomposition_TypeRankFirst(t *testing.T) {
	input := []models.Modifier{
		{Text: "매운", Type: models.ModifierTaste},
		{Text: "왕", Type: models.ModifierSize},
		{Text: "원조", Type: models.ModifierEmotion},
		{Text: "숯불", Type: models.ModifierCooking},
	}

	sorted := sortForDecomposition(input)

	assert.Equal(t, "원조", sorted[0].Text)
	assert.Equal(t, "숯불", sorted[1].Text)
	assert.Equal(t, "매운", sorted[2].Text)
	assert.Equal(t, "왕", sorted[3].Text)
}

func TestSortForDecomposition_LongerTokenWinsWithinType(t *testing.T) {
	input := []models.Modifier{
		{Text: "원", Type: models.ModifierEmotion, Priority: 9},
		{Text: "원조", Type: models.ModifierEmotion, Priority: 1},
	}

	sorted := sortForDecomposition(input)

	assert.Equal(t, "원조", sorted[0].Text)
	assert.Equal(t, "원", sorted[1].Text)
}

func TestSortForDecomposition_PriorityBreaksLengthTies(t *testing.T) {
	input := []models.Modifier{
		{Text: "수제", Type: models.ModifierGrade, Priority: 2},
		{Text: "특제", Type: models.ModifierGrade, Priority: 7},
	}

	sorted := sortForDecomposition(input)

	assert.Equal(t, "특제", sorted[0].Text)
}

func TestSortForDecomposition_DoesNotMutateInput(t *testing.T) {
	input := []models.Modifier{
		{Text: "왕", Type: models.ModifierSize},
		{Text: "원조", Type: models.ModifierEmotion},
	}

	_ = sortForDecomposition(input)

	assert.Equal(t, "왕", input[0].Text)
}

func TestDecomposeStep_StripsFirstApplicable(t *testing.T) {
	candidates := []models.Modifier{
		{Text: "원조", Type: models.ModifierEmotion},
		{Text: "왕", Type: models.ModifierSize},
	}

	rest, mod, remaining := decomposeStep("원조왕족발", candidates)

	require.NotNil(t, mod)
	assert.Equal(t, "원조", mod.Text)
	assert.Equal(t, "왕족발", rest)
	require.Len(t, remaining, 1)
	assert.Equal(t, "왕", remaining[0].Text)
}

func TestDecomposeStep_SkipsCandidateNotInRemainder(t *testing.T) {
	candidates := []models.Modifier{
		{Text: "할머니", Type: models.ModifierEmotion},
		{Text: "왕", Type: models.ModifierSize},
	}

	rest, mod, _ := decomposeStep("왕족발", candidates)

	require.NotNil(t, mod)
	assert.Equal(t, "왕", mod.Text)
	assert.Equal(t, "족발", rest)
}

func TestDecomposeStep_SkipsStripToEmpty(t *testing.T) {
	candidates := []models.Modifier{
		{Text: "족발", Type: models.ModifierCooking},
	}

	rest, mod, remaining := decomposeStep("족발", candidates)

	assert.Nil(t, mod)
	assert.Equal(t, "족발", rest)
	assert.Nil(t, remaining)
}

func TestDecomposeStep_NoCandidateApplies(t *testing.T) {
	candidates := []models.Modifier{
		{Text: "숯불", Type: models.ModifierCooking},
	}

	rest, mod, remaining := decomposeStep("김치찌개", candidates)

	assert.Nil(t, mod)
	assert.Equal(t, "김치찌개", rest)
	assert.Nil(t, remaining)
}

func TestDecomposeStep_TrimsWhitespaceAfterStrip(t *testing.T) {
	candidates := []models.Modifier{
		{Text: "왕", Type: models.ModifierSize},
	}

	rest, mod, _ := decomposeStep("왕 족발", candidates)

	require.NotNil(t, mod)
	assert.Equal(t, "족발", rest)
}
