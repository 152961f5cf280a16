package classify

import (
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// Genre labels produced by the rule table. Playlist names are compared
// case-insensitively downstream, so casing here is display-only.
const (
	GenreHipHop    = "Hip-Hop"
	GenrePop       = "Pop"
	GenreFolk      = "Folk"
	GenreRock      = "Rock"
	GenreClassical = "Classical"
	GenreIndie     = "Indie"
)

// rule pairs a predicate with the label it assigns.
type rule struct {
	label string
	match func(features.Vector) bool
}

// ruleTable is the ordered classification policy. Predicates are
// evaluated top to bottom and the first match wins; the final catch-all
// guarantees every vector gets exactly one label.
var ruleTable = []rule{
	{GenreHipHop, func(v features.Vector) bool {
		return v.Speechiness > 0.4
	}},
	{GenrePop, func(v features.Vector) bool {
		return v.Energy > 0.7 && v.Danceability > 0.6
	}},
	{GenreFolk, func(v features.Vector) bool {
		return v.Acousticness > 0.7 && v.Valence > 0.5
	}},
	{GenreRock, func(v features.Vector) bool {
		return v.Energy > 0.6 && v.Valence < 0.4
	}},
	{GenreClassical, func(v features.Vector) bool {
		return v.Energy < 0.3 && v.Acousticness > 0.6
	}},
	{GenreIndie, func(features.Vector) bool {
		return true
	}},
}

// RuleBased classifies a descriptor vector using the ordered rule
// table. It is total: every vector, including an all-zero one, maps to
// exactly one label with confidence 1.
func RuleBased(v features.Vector) ClassificationResult {
	for _, r := range ruleTable {
		if r.match(v) {
			return ClassificationResult{Label: r.label, Confidence: 1, Source: SourceRule}
		}
	}
	// Unreachable: the catch-all above always matches.
	return ClassificationResult{Label: GenreIndie, Confidence: 1, Source: SourceRule}
}

// RuleLabels returns the closed label set the rule table can produce,
// in policy order.
func RuleLabels() []string {
	labels := make([]string, 0, len(ruleTable))
	seen := make(map[string]bool, len(ruleTable))
	for _, r := range ruleTable {
		if !seen[r.label] {
			labels = append(labels, r.label)
			seen[r.label] = true
		}
	}
	return labels
}
