package features

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
	"github.com/marisev/go-spotify-genre-sorter/internal/deezer"
)

// maxIDsPerRequest is the catalog API's batch limit for descriptor
// requests.
const maxIDsPerRequest = 100

// DescriptorSource fetches numeric audio descriptors for up to 100
// tracks per call, aligned with the input IDs, nil where unavailable.
type DescriptorSource interface {
	AudioDescriptors(ctx context.Context, trackIDs []string) ([]*Vector, error)
}

// PreviewSource resolves a title and artist to a preview clip URL.
// Implementations return deezer.ErrNoPreview when nothing playable
// matches.
type PreviewSource interface {
	FindPreview(ctx context.Context, title, artist string) (string, error)
}

// ClipSource converts a preview clip URL into a mel spectrogram.
type ClipSource interface {
	FromURL(ctx context.Context, previewURL string) (*audio.Spectrogram, error)
}

// Provider resolves a feature representation per track: catalog numeric
// descriptors first, then a spectrogram from a preview clip, then
// Unavailable. Audio failures are expected and never abort a batch.
type Provider struct {
	descriptors DescriptorSource
	previews    PreviewSource
	clips       ClipSource
	logger      *log.Logger
}

// NewProvider creates a Provider. previews and clips may be nil, in
// which case the audio-clip fallback is disabled and tracks without
// descriptors resolve to Unavailable.
func NewProvider(descriptors DescriptorSource, previews PreviewSource, clips ClipSource, logger *log.Logger) *Provider {
	return &Provider{
		descriptors: descriptors,
		previews:    previews,
		clips:       clips,
		logger:      logger,
	}
}

// Resolve produces the feature representation for a single track.
func (p *Provider) Resolve(ctx context.Context, track Track) Result {
	vectors, err := p.descriptors.AudioDescriptors(ctx, []string{track.ID})
	if err != nil {
		p.logger.Warn("descriptor fetch failed", "track", track.ID, "err", err)
		return p.resolveFromClip(ctx, track, err)
	}
	if len(vectors) == 1 && vectors[0] != nil {
		return Numeric(p.withTrackFlags(track, *vectors[0]))
	}
	return p.resolveFromClip(ctx, track, nil)
}

// ResolveBatch resolves features for many tracks, chunking descriptor
// requests at the API's batch limit. A failed chunk degrades only that
// chunk's entries; tracks without descriptors fall back to the clip
// path individually.
func (p *Provider) ResolveBatch(ctx context.Context, tracks []Track) map[string]Result {
	results := make(map[string]Result, len(tracks))
	if len(tracks) == 0 {
		return results
	}

	for start := 0; start < len(tracks); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(tracks))
		chunk := tracks[start:end]

		ids := make([]string, len(chunk))
		for i, t := range chunk {
			ids[i] = t.ID
		}

		vectors, err := p.descriptors.AudioDescriptors(ctx, ids)
		if err != nil {
			// Degrade this chunk only; the rest of the batch continues.
			p.logger.Warn("descriptor chunk failed", "from", start, "to", end, "err", err)
			for _, t := range chunk {
				results[t.ID] = Unavailable(err)
			}
			continue
		}

		for i, t := range chunk {
			if vectors[i] != nil {
				results[t.ID] = Numeric(p.withTrackFlags(t, *vectors[i]))
			} else {
				results[t.ID] = p.resolveFromClip(ctx, t, nil)
			}
		}
	}

	return results
}

// resolveFromClip attempts the preview-clip path. fetchErr, when set,
// is the descriptor failure that led here and is kept as the
// Unavailable reason if the clip path is disabled.
func (p *Provider) resolveFromClip(ctx context.Context, track Track, fetchErr error) Result {
	if p.previews == nil || p.clips == nil {
		return Unavailable(fetchErr)
	}

	previewURL, err := p.previews.FindPreview(ctx, track.Name, strings.Join(track.Artists, " "))
	if err != nil {
		if !errors.Is(err, deezer.ErrNoPreview) {
			p.logger.Warn("preview lookup failed", "track", track.ID, "err", err)
		}
		return Unavailable(err)
	}

	spec, err := p.clips.FromURL(ctx, previewURL)
	if err != nil {
		p.logger.Warn("clip analysis failed", "track", track.ID, "err", err)
		return Unavailable(err)
	}

	return Mel(spec)
}

// withTrackFlags overlays descriptor-independent attributes that come
// from track metadata rather than the descriptor endpoint.
func (p *Provider) withTrackFlags(track Track, v Vector) Vector {
	if track.Explicit {
		v.Explicit = 1
	}
	return v
}
