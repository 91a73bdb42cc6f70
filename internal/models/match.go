package models

// MatchType identifies which strategy resolved a dish name.
type MatchType string

const (
	MatchExact                 MatchType = "exact"
	MatchSimilarity            MatchType = "similarity"
	MatchModifierDecomposition MatchType = "modifier_decomposition"
	MatchAIDiscoveryNeeded     MatchType = "ai_discovery_needed"
)

// MatchResult is the outcome of resolving one raw dish-name string.
//
// Invariants: MatchExact implies Confidence == 1.0 and Canonical != nil;
// MatchAIDiscoveryNeeded implies Canonical == nil and Confidence == 0.0.
type MatchResult struct {
	Input      string         `json:"input"`
	MatchType  MatchType      `json:"match_type"`
	Canonical  *CanonicalDish `json:"canonical"`
	Modifiers  []Modifier     `json:"modifiers"`
	Confidence float64        `json:"confidence"`
	AICalled   bool           `json:"ai_called"`
}
