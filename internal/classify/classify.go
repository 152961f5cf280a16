// Package classify maps a track's feature representation to a genre
// label using a hybrid of an ordered rule table and an optional trained
// model with confidence-gated fallback.
package classify

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// ConfidenceGate is the minimum model probability required to accept a
// model prediction over the rule-based fallback.
const ConfidenceGate = 0.4

// ErrNoFeatures is returned when an Unavailable feature result reaches
// the classifier; callers are expected to skip such tracks upstream.
var ErrNoFeatures = errors.New("no features to classify")

// Source identifies which strategy produced a classification.
type Source string

const (
	// SourceRule marks a rule-table decision.
	SourceRule Source = "rule-based"
	// SourceModel marks a model prediction.
	SourceModel Source = "model"
)

// ClassificationResult is a genre decision. Confidence is 1 for pure
// rule-based results.
type ClassificationResult struct {
	Label      string
	Confidence float64
	Source     Source
}

// predictor is the model surface the classifier depends on, satisfied
// by *Model and by test doubles.
type predictor interface {
	PredictNumeric(features.Vector) (string, float64, error)
	PredictMel(*audio.Spectrogram) (string, float64, error)
	HasNumeric() bool
	HasMel() bool
}

// Classifier assigns genre labels. When the model artifact is absent it
// degrades permanently to rule-based-only for the process lifetime.
type Classifier struct {
	model  predictor // nil when no artifact is loaded
	gate   float64
	logger *log.Logger
}

// New creates a Classifier, loading the model artifact from dir. A
// missing or corrupt artifact is not fatal: it logs a one-time warning
// and leaves the classifier rule-based-only. An empty dir disables the
// model path outright.
func New(dir string, logger *log.Logger) *Classifier {
	c := &Classifier{gate: ConfidenceGate, logger: logger}

	if dir == "" {
		logger.Warn("no model artifact configured, classification is rule-based only")
		return c
	}

	model, err := LoadModel(dir)
	if err != nil {
		logger.Warn("model artifact unavailable, classification is rule-based only", "dir", dir, "err", err)
		return c
	}

	c.model = model
	logger.Info("model artifact loaded", "dir", dir,
		"numeric", model.HasNumeric(), "spectrogram", model.HasMel(), "labels", len(model.Labels()))
	return c
}

// SpectrogramCapable reports whether spectrogram input can be
// classified. Callers use this to skip the expensive audio-clip path
// when its output could never be consumed.
func (c *Classifier) SpectrogramCapable() bool {
	return c.model != nil && c.model.HasMel()
}

// Classify assigns a genre to a feature result. It is total over
// numeric inputs: any model failure or below-gate confidence falls back
// to the rule table. Spectrogram inputs have no rule-based fallback
// since no numeric attributes exist to evaluate the rules over, so a
// below-gate model label is returned as-is and a missing model is an
// error.
func (c *Classifier) Classify(result features.Result) (ClassificationResult, error) {
	switch result.Kind() {
	case features.KindNumeric:
		return c.classifyNumeric(result.Numeric()), nil

	case features.KindMel:
		if c.model == nil || !c.model.HasMel() {
			return ClassificationResult{}, ErrModelUnavailable
		}
		label, confidence, err := c.model.PredictMel(result.Mel())
		if err != nil {
			return ClassificationResult{}, fmt.Errorf("spectrogram prediction: %w", err)
		}
		return ClassificationResult{Label: label, Confidence: confidence, Source: SourceModel}, nil

	case features.KindUnavailable:
		return ClassificationResult{}, ErrNoFeatures

	default:
		return ClassificationResult{}, fmt.Errorf("unknown feature kind %d", result.Kind())
	}
}

// classifyNumeric prefers the model but replaces any below-gate or
// failed prediction with the rule-based label for the same vector.
func (c *Classifier) classifyNumeric(v features.Vector) ClassificationResult {
	if c.model == nil || !c.model.HasNumeric() {
		return RuleBased(v)
	}

	label, confidence, err := c.model.PredictNumeric(v)
	if err != nil {
		c.logger.Warn("numeric prediction failed, using rule table", "err", err)
		return RuleBased(v)
	}
	if confidence < c.gate {
		return RuleBased(v)
	}
	return ClassificationResult{Label: label, Confidence: confidence, Source: SourceModel}
}
