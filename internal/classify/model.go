package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/tphakala/go-tflite"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// metadataFile describes the artifact directory layout: a metadata JSON
// next to the serialized model files it names.
const metadataFile = "metadata.json"

// ErrModelUnavailable is returned when the model artifact is missing or
// corrupt, or when a spectrogram is classified without a loaded
// spectrogram model.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// modelMetadata is the artifact manifest: label set, feature scaling,
// feature order, and the preprocessing convention the spectrogram model
// was trained with.
type modelMetadata struct {
	Labels          []string  `json:"labels"`
	FeatureOrder    []string  `json:"feature_order"`
	FeatureMean     []float32 `json:"feature_mean"`
	FeatureStd      []float32 `json:"feature_std"`
	SpectrogramNorm string    `json:"spectrogram_norm"`
	NumericModel    string    `json:"numeric_model"`
	MelModel        string    `json:"mel_model"`
}

// Model wraps the TensorFlow Lite interpreters for the numeric and
// spectrogram classifiers. Either interpreter may be absent; the
// artifact manifest decides. Loaded once at startup and never mutated.
type Model struct {
	meta    modelMetadata
	numeric *tflite.Interpreter
	mel     *tflite.Interpreter

	// Interpreter access is serialized: tensors are shared state.
	mu sync.Mutex
}

// LoadModel reads the artifact directory and initializes interpreters
// for whichever model files the manifest names. All failures wrap
// ErrModelUnavailable so callers can degrade instead of aborting.
func LoadModel(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %w", ErrModelUnavailable, err)
	}

	var meta modelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %w", ErrModelUnavailable, err)
	}
	if err := validateMetadata(&meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	m := &Model{meta: meta}
	if meta.NumericModel != "" {
		m.numeric, err = newInterpreter(filepath.Join(dir, meta.NumericModel))
		if err != nil {
			return nil, fmt.Errorf("%w: numeric model: %w", ErrModelUnavailable, err)
		}
	}
	if meta.MelModel != "" {
		m.mel, err = newInterpreter(filepath.Join(dir, meta.MelModel))
		if err != nil {
			return nil, fmt.Errorf("%w: spectrogram model: %w", ErrModelUnavailable, err)
		}
	}
	if m.numeric == nil && m.mel == nil {
		return nil, fmt.Errorf("%w: manifest names no model files", ErrModelUnavailable)
	}

	return m, nil
}

// validateMetadata checks the manifest invariants the predict paths
// rely on.
func validateMetadata(meta *modelMetadata) error {
	if len(meta.Labels) == 0 {
		return errors.New("manifest has empty label set")
	}
	if meta.NumericModel != "" {
		if len(meta.FeatureOrder) == 0 {
			return errors.New("numeric model without feature order")
		}
		if len(meta.FeatureMean) != len(meta.FeatureOrder) || len(meta.FeatureStd) != len(meta.FeatureOrder) {
			return errors.New("feature scaling length does not match feature order")
		}
		for i, std := range meta.FeatureStd {
			if std == 0 {
				return fmt.Errorf("zero standard deviation for feature %q", meta.FeatureOrder[i])
			}
		}
	}
	// The spectrogram pipeline produces one normalization convention;
	// a model trained on another would silently misclassify.
	if meta.MelModel != "" && meta.SpectrogramNorm != audio.NormDBRefMax {
		return fmt.Errorf("spectrogram model trained with %q normalization, pipeline produces %q",
			meta.SpectrogramNorm, audio.NormDBRefMax)
	}
	return nil
}

// newInterpreter loads a TensorFlow Lite model file and allocates its
// tensors.
func newInterpreter(path string) (*tflite.Interpreter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, errors.New("cannot load TensorFlow Lite model")
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(runtime.NumCPU())

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.New("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		return nil, errors.New("tensor allocation failed")
	}

	return interpreter, nil
}

// HasNumeric reports whether a numeric-descriptor model is loaded.
func (m *Model) HasNumeric() bool { return m.numeric != nil }

// HasMel reports whether a spectrogram model is loaded.
func (m *Model) HasMel() bool { return m.mel != nil }

// Labels returns the model's label set.
func (m *Model) Labels() []string { return m.meta.Labels }

// PredictNumeric runs the numeric model over a descriptor vector and
// returns the top label with its probability.
func (m *Model) PredictNumeric(v features.Vector) (string, float64, error) {
	if m.numeric == nil {
		return "", 0, ErrModelUnavailable
	}

	input := v.Ordered(m.meta.FeatureOrder)
	for i := range input {
		input[i] = (input[i] - m.meta.FeatureMean[i]) / m.meta.FeatureStd[i]
	}

	return m.invoke(m.numeric, input)
}

// PredictMel runs the spectrogram model over a mel spectrogram and
// returns the top label with its probability.
func (m *Model) PredictMel(s *audio.Spectrogram) (string, float64, error) {
	if m.mel == nil {
		return "", 0, ErrModelUnavailable
	}
	if bins, frames := s.Shape(); bins != audio.MelBins || frames != audio.MelFrames {
		return "", 0, fmt.Errorf("%w: input shape %dx%d", audio.ErrShape, bins, frames)
	}

	return m.invoke(m.mel, s.Flatten())
}

// invoke copies the input into the interpreter, runs inference, and
// returns the argmax label and probability.
func (m *Model) invoke(interpreter *tflite.Interpreter, input []float32) (string, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inputTensor := interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return "", 0, errors.New("cannot get input tensor")
	}
	if got := len(inputTensor.Float32s()); got != len(input) {
		return "", 0, fmt.Errorf("model expects %d inputs, have %d", got, len(input))
	}
	copy(inputTensor.Float32s(), input)

	if status := interpreter.Invoke(); status != tflite.OK {
		return "", 0, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return "", 0, errors.New("cannot get output tensor")
	}
	probs := outputTensor.Float32s()
	if len(probs) != len(m.meta.Labels) {
		return "", 0, fmt.Errorf("model emitted %d probabilities for %d labels", len(probs), len(m.meta.Labels))
	}

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.meta.Labels[best], float64(probs[best]), nil
}
