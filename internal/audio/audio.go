// Package audio turns a preview audio clip into a fixed-shape mel
// spectrogram suitable as classifier input.
package audio

import "errors"

// Pipeline parameters. These must match the preprocessing the deployed
// spectrogram model was trained with; changing any of them silently
// degrades classification accuracy without crashing.
const (
	// SampleRate is the target sample rate in Hz.
	SampleRate = 22050
	// ClipSeconds is the fixed clip duration the pipeline normalizes to.
	ClipSeconds = 30
	// ClipSamples is the fixed waveform length after truncation/padding.
	ClipSamples = SampleRate * ClipSeconds
	// FrameSize is the STFT window size in samples.
	FrameSize = 2048
	// HopSize is the number of samples between successive STFT frames.
	HopSize = 1024
	// MelBins is the number of mel frequency bands.
	MelBins = 128
	// MelFrames is the fixed number of time frames in the output.
	MelFrames = 640
	// MinDB is the floor applied to decibel magnitudes.
	MinDB = -80.0
)

// NormDBRefMax names the normalization convention this pipeline produces:
// decibels relative to the clip's own peak power, floored at MinDB.
// A model artifact declaring a different convention is rejected at load.
const NormDBRefMax = "db_ref_max"

var (
	// ErrSilent is returned when a decoded clip contains only silence,
	// which cannot be peak-normalized.
	ErrSilent = errors.New("audio clip is silent")

	// ErrShape reports a violated spectrogram shape post-condition.
	// Reaching it indicates a bug in the padding logic.
	ErrShape = errors.New("spectrogram shape mismatch")
)

// Spectrogram is a fixed-shape mel-scaled magnitude spectrogram in
// decibels, laid out as [MelBins][MelFrames]. It carries no catalog
// identity and is consumed immediately by the classifier.
type Spectrogram struct {
	Data [][]float32
}

// Shape returns (frequency bins, time frames).
func (s *Spectrogram) Shape() (bins, frames int) {
	if len(s.Data) == 0 {
		return 0, 0
	}
	return len(s.Data), len(s.Data[0])
}

// Flatten returns the magnitudes in row-major (bin, frame) order for
// copying into a model input tensor.
func (s *Spectrogram) Flatten() []float32 {
	bins, frames := s.Shape()
	out := make([]float32, 0, bins*frames)
	for b := 0; b < bins; b++ {
		out = append(out, s.Data[b][:frames]...)
	}
	return out
}
