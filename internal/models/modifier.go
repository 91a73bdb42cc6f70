package models

// ModifierType classifies a linguistic modifier token.
type ModifierType string

const (
	ModifierEmotion    ModifierType = "emotion"
	ModifierCooking    ModifierType = "cooking"
	ModifierGrade      ModifierType = "grade"
	ModifierOrigin     ModifierType = "origin"
	ModifierTaste      ModifierType = "taste"
	ModifierSize       ModifierType = "size"
	ModifierIngredient ModifierType = "ingredient"
)

// Modifier is a linguistic token that can decorate a dish name without
// changing which canonical dish it refers to.
type Modifier struct {
	Text        string       `json:"text_ko"`
	Type        ModifierType `json:"type"`
	SemanticKey string       `json:"semantic_key,omitempty"`
	Priority    int          `json:"priority"`
	Translation string       `json:"translation_en,omitempty"`
}
