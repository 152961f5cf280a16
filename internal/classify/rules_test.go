package classify

import (
	"testing"

	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

func TestRuleBased(t *testing.T) {
	tests := []struct {
		name      string
		vector    features.Vector
		wantLabel string
	}{
		{
			name:      "speechiness short-circuits everything else",
			vector:    features.Vector{Speechiness: 0.5, Energy: 0.2},
			wantLabel: GenreHipHop,
		},
		{
			name:      "high speechiness beats pop-looking vector",
			vector:    features.Vector{Speechiness: 0.41, Energy: 0.9, Danceability: 0.9, Valence: 0.9},
			wantLabel: GenreHipHop,
		},
		{
			name:      "energetic and danceable",
			vector:    features.Vector{Energy: 0.8, Danceability: 0.9, Valence: 0.9, Speechiness: 0.1},
			wantLabel: GenrePop,
		},
		{
			name:      "acoustic and happy",
			vector:    features.Vector{Acousticness: 0.8, Valence: 0.6},
			wantLabel: GenreFolk,
		},
		{
			name:      "energetic and dark",
			vector:    features.Vector{Energy: 0.7, Valence: 0.2},
			wantLabel: GenreRock,
		},
		{
			name:      "quiet and acoustic",
			vector:    features.Vector{Energy: 0.1, Acousticness: 0.7},
			wantLabel: GenreClassical,
		},
		{
			name:      "zero vector falls through to catch-all",
			vector:    features.Vector{},
			wantLabel: GenreIndie,
		},
		{
			name:      "middling vector falls through to catch-all",
			vector:    features.Vector{Energy: 0.5, Danceability: 0.5, Valence: 0.45, Acousticness: 0.5},
			wantLabel: GenreIndie,
		},
		{
			name: "rock requires low valence",
			// Energy qualifies for rock but valence is too high, and
			// danceability is too low for pop.
			vector:    features.Vector{Energy: 0.9, Valence: 0.5, Danceability: 0.5},
			wantLabel: GenreIndie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RuleBased(tt.vector)

			if got.Label != tt.wantLabel {
				t.Errorf("RuleBased() label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Confidence != 1 {
				t.Errorf("RuleBased() confidence = %v, want 1", got.Confidence)
			}
			if got.Source != SourceRule {
				t.Errorf("RuleBased() source = %q, want %q", got.Source, SourceRule)
			}
		})
	}
}

func TestRuleBased_Totality(t *testing.T) {
	// Sweep a coarse grid over the attributes the rule table reads and
	// verify every vector maps to exactly one label from the closed set.
	valid := make(map[string]bool)
	for _, label := range RuleLabels() {
		valid[label] = true
	}

	steps := []float32{0, 0.25, 0.5, 0.75, 1}
	for _, speech := range steps {
		for _, energy := range steps {
			for _, dance := range steps {
				for _, acoustic := range steps {
					for _, valence := range steps {
						v := features.Vector{
							Speechiness:  speech,
							Energy:       energy,
							Danceability: dance,
							Acousticness: acoustic,
							Valence:      valence,
						}
						got := RuleBased(v)
						if !valid[got.Label] {
							t.Fatalf("RuleBased(%+v) = %q, not in closed label set", v, got.Label)
						}
					}
				}
			}
		}
	}
}

func TestRuleLabels(t *testing.T) {
	want := []string{GenreHipHop, GenrePop, GenreFolk, GenreRock, GenreClassical, GenreIndie}

	got := RuleLabels()
	if len(got) != len(want) {
		t.Fatalf("RuleLabels() returned %d labels, want %d", len(got), len(want))
	}
	for i, label := range want {
		if got[i] != label {
			t.Errorf("RuleLabels()[%d] = %q, want %q", i, got[i], label)
		}
	}
}
