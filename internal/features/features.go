// Package features resolves a feature representation for each track,
// preferring catalog-supplied numeric descriptors and falling back to a
// mel spectrogram computed from a preview audio clip.
package features

import (
	"time"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
)

// Track represents a song from the user's library.
type Track struct {
	ID         string
	Name       string
	Artists    []string // Ordered as returned by the catalog
	Album      string
	Popularity int
	Explicit   bool
	AddedAt    time.Time // When the user liked the track
}

// Vector holds the numeric audio descriptors for a track.
// All attributes are always present; a descriptor the catalog did not
// supply is zero, never absent, so classification stays total.
type Vector struct {
	DurationMS       float32
	Explicit         float32 // 0 or 1
	Danceability     float32
	Energy           float32
	Key              float32
	Loudness         float32
	Mode             float32
	Speechiness      float32
	Acousticness     float32
	Instrumentalness float32
	Liveness         float32
	Valence          float32
	Tempo            float32
	TimeSignature    float32
}

// Value returns the named attribute, or 0 for an unknown name.
func (v Vector) Value(name string) float32 {
	switch name {
	case "duration_ms":
		return v.DurationMS
	case "explicit":
		return v.Explicit
	case "danceability":
		return v.Danceability
	case "energy":
		return v.Energy
	case "key":
		return v.Key
	case "loudness":
		return v.Loudness
	case "mode":
		return v.Mode
	case "speechiness":
		return v.Speechiness
	case "acousticness":
		return v.Acousticness
	case "instrumentalness":
		return v.Instrumentalness
	case "liveness":
		return v.Liveness
	case "valence":
		return v.Valence
	case "tempo":
		return v.Tempo
	case "time_signature":
		return v.TimeSignature
	default:
		return 0
	}
}

// Ordered returns attribute values in the given name order, defaulting
// unknown names to 0. Used to build model input tensors.
func (v Vector) Ordered(names []string) []float32 {
	out := make([]float32, len(names))
	for i, name := range names {
		out[i] = v.Value(name)
	}
	return out
}

// Kind identifies which variant a Result holds.
type Kind int

const (
	// KindUnavailable means no feature representation could be resolved.
	KindUnavailable Kind = iota
	// KindNumeric means catalog numeric descriptors are available.
	KindNumeric
	// KindMel means a mel spectrogram was computed from a preview clip.
	KindMel
)

// Result is the closed tagged union produced by the provider. Exactly one
// variant is set; consumers switch on Kind rather than probing fields.
type Result struct {
	kind    Kind
	numeric Vector
	mel     *audio.Spectrogram
	reason  error // set for Unavailable, explains why resolution failed
}

// Numeric wraps a descriptor vector as a Result.
func Numeric(v Vector) Result {
	return Result{kind: KindNumeric, numeric: v}
}

// Mel wraps a spectrogram as a Result.
func Mel(s *audio.Spectrogram) Result {
	return Result{kind: KindMel, mel: s}
}

// Unavailable marks a track as having no resolvable features.
// The reason is kept for diagnostics and may be nil.
func Unavailable(reason error) Result {
	return Result{kind: KindUnavailable, reason: reason}
}

// Kind reports which variant the result holds.
func (r Result) Kind() Kind { return r.kind }

// Numeric returns the descriptor vector. Only meaningful for KindNumeric.
func (r Result) Numeric() Vector { return r.numeric }

// Mel returns the spectrogram. Only meaningful for KindMel.
func (r Result) Mel() *audio.Spectrogram { return r.mel }

// Reason returns why resolution failed for KindUnavailable results.
func (r Result) Reason() error { return r.reason }
