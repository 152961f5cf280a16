package classify

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// fakePredictor returns canned predictions for gating tests.
type fakePredictor struct {
	numericLabel string
	numericConf  float64
	numericErr   error
	melLabel     string
	melConf      float64
	melErr       error
	hasNumeric   bool
	hasMel       bool
}

func (f *fakePredictor) PredictNumeric(features.Vector) (string, float64, error) {
	return f.numericLabel, f.numericConf, f.numericErr
}

func (f *fakePredictor) PredictMel(*audio.Spectrogram) (string, float64, error) {
	return f.melLabel, f.melConf, f.melErr
}

func (f *fakePredictor) HasNumeric() bool { return f.hasNumeric }
func (f *fakePredictor) HasMel() bool     { return f.hasMel }

func testClassifier(model predictor) *Classifier {
	return &Classifier{
		model:  model,
		gate:   ConfidenceGate,
		logger: log.New(io.Discard),
	}
}

func testSpectrogram() *audio.Spectrogram {
	data := make([][]float32, audio.MelBins)
	for b := range data {
		data[b] = make([]float32, audio.MelFrames)
	}
	return &audio.Spectrogram{Data: data}
}

func TestClassify_Numeric(t *testing.T) {
	// A vector the rule table maps to Hip-Hop.
	hipHopVector := features.Vector{Speechiness: 0.5, Energy: 0.2}

	tests := []struct {
		name       string
		model      predictor
		wantLabel  string
		wantSource Source
	}{
		{
			name:       "no model uses rule table",
			model:      nil,
			wantLabel:  GenreHipHop,
			wantSource: SourceRule,
		},
		{
			name:       "confident model prediction wins",
			model:      &fakePredictor{hasNumeric: true, numericLabel: "Jazz", numericConf: 0.9},
			wantLabel:  "Jazz",
			wantSource: SourceModel,
		},
		{
			name:       "below-gate prediction is replaced by rule label",
			model:      &fakePredictor{hasNumeric: true, numericLabel: "Jazz", numericConf: 0.39},
			wantLabel:  GenreHipHop,
			wantSource: SourceRule,
		},
		{
			name:       "prediction at the gate is accepted",
			model:      &fakePredictor{hasNumeric: true, numericLabel: "Jazz", numericConf: 0.4},
			wantLabel:  "Jazz",
			wantSource: SourceModel,
		},
		{
			name:       "model failure falls back to rule table",
			model:      &fakePredictor{hasNumeric: true, numericErr: errors.New("invoke failed")},
			wantLabel:  GenreHipHop,
			wantSource: SourceRule,
		},
		{
			name:       "model without numeric support uses rule table",
			model:      &fakePredictor{hasMel: true, numericLabel: "Jazz", numericConf: 0.9},
			wantLabel:  GenreHipHop,
			wantSource: SourceRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier(tt.model)

			got, err := c.Classify(features.Numeric(hipHopVector))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}

			if got.Label != tt.wantLabel {
				t.Errorf("Classify() label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Classify() source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.Source == SourceRule && got.Confidence != 1 {
				t.Errorf("rule-based confidence = %v, want 1", got.Confidence)
			}
		})
	}
}

func TestClassify_Mel(t *testing.T) {
	t.Run("below-gate label is returned as-is", func(t *testing.T) {
		// There are no numeric attributes to evaluate the rules over,
		// so low confidence does not trigger a fallback.
		c := testClassifier(&fakePredictor{hasMel: true, melLabel: "Metal", melConf: 0.1})

		got, err := c.Classify(features.Mel(testSpectrogram()))
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if got.Label != "Metal" {
			t.Errorf("Classify() label = %q, want %q", got.Label, "Metal")
		}
		if got.Confidence != 0.1 {
			t.Errorf("Classify() confidence = %v, want 0.1", got.Confidence)
		}
		if got.Source != SourceModel {
			t.Errorf("Classify() source = %q, want %q", got.Source, SourceModel)
		}
	})

	t.Run("no model is an error", func(t *testing.T) {
		c := testClassifier(nil)

		_, err := c.Classify(features.Mel(testSpectrogram()))
		if !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("Classify() error = %v, want ErrModelUnavailable", err)
		}
	})

	t.Run("prediction failure propagates", func(t *testing.T) {
		c := testClassifier(&fakePredictor{hasMel: true, melErr: errors.New("invoke failed")})

		_, err := c.Classify(features.Mel(testSpectrogram()))
		if err == nil {
			t.Error("Classify() error = nil, want prediction failure")
		}
	})
}

func TestClassify_Unavailable(t *testing.T) {
	c := testClassifier(nil)

	_, err := c.Classify(features.Unavailable(nil))
	if !errors.Is(err, ErrNoFeatures) {
		t.Errorf("Classify() error = %v, want ErrNoFeatures", err)
	}
}

func TestNew_MissingArtifact(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{"empty dir disables model", ""},
		{"nonexistent dir degrades to rules", t.TempDir() + "/nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.dir, log.New(io.Discard))

			if c.SpectrogramCapable() {
				t.Error("SpectrogramCapable() = true without an artifact")
			}

			// Numeric classification still works, rule-based.
			got, err := c.Classify(features.Numeric(features.Vector{Energy: 0.8, Danceability: 0.9}))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Source != SourceRule {
				t.Errorf("Classify() source = %q, want %q", got.Source, SourceRule)
			}
			if got.Label != GenrePop {
				t.Errorf("Classify() label = %q, want %q", got.Label, GenrePop)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name    string
		meta    modelMetadata
		wantErr bool
	}{
		{
			name: "valid numeric manifest",
			meta: modelMetadata{
				Labels:       []string{"Pop", "Rock"},
				FeatureOrder: []string{"energy", "valence"},
				FeatureMean:  []float32{0.5, 0.5},
				FeatureStd:   []float32{0.2, 0.2},
				NumericModel: "numeric.tflite",
			},
		},
		{
			name: "valid spectrogram manifest",
			meta: modelMetadata{
				Labels:          []string{"Pop", "Rock"},
				SpectrogramNorm: audio.NormDBRefMax,
				MelModel:        "mel.tflite",
			},
		},
		{
			name:    "empty label set",
			meta:    modelMetadata{NumericModel: "numeric.tflite"},
			wantErr: true,
		},
		{
			name: "scaling length mismatch",
			meta: modelMetadata{
				Labels:       []string{"Pop"},
				FeatureOrder: []string{"energy", "valence"},
				FeatureMean:  []float32{0.5},
				FeatureStd:   []float32{0.2, 0.2},
				NumericModel: "numeric.tflite",
			},
			wantErr: true,
		},
		{
			name: "zero standard deviation",
			meta: modelMetadata{
				Labels:       []string{"Pop"},
				FeatureOrder: []string{"energy"},
				FeatureMean:  []float32{0.5},
				FeatureStd:   []float32{0},
				NumericModel: "numeric.tflite",
			},
			wantErr: true,
		},
		{
			name: "wrong spectrogram normalization is rejected",
			meta: modelMetadata{
				Labels:          []string{"Pop"},
				SpectrogramNorm: "minmax_01",
				MelModel:        "mel.tflite",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMetadata(&tt.meta)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMetadata() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
