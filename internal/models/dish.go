package models

// CanonicalDish is the standardized, deduplicated reference record a raw dish
// name resolves to. Owned by the external store; the core only reads it.
type CanonicalDish struct {
	ID              string   `json:"id"`
	Name            string   `json:"name_ko"`
	NameEn          string   `json:"name_en,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
	MainIngredients []string `json:"main_ingredients,omitempty"`
	Allergens       []string `json:"allergens,omitempty"`
	SpiceLevel      int      `json:"spice_level"`
	DifficultyScore int      `json:"difficulty_score"`
	ImageURL        string   `json:"image_url,omitempty"`
}

// ScoredDish pairs a candidate with its trigram similarity score.
type ScoredDish struct {
	Dish  CanonicalDish `json:"dish"`
	Score float64       `json:"score"`
}
