package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// AudioDescriptors fetches the numeric audio descriptors for up to
// maxIDsPerRequest tracks in a single request. The returned slice is
// aligned with trackIDs; entries the service has no descriptors for are
// nil. Callers batching larger sets chunk IDs themselves.
func (c *Client) AudioDescriptors(ctx context.Context, trackIDs []string) ([]*features.Vector, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	if len(trackIDs) > maxIDsPerRequest {
		return nil, fmt.Errorf("requested %d descriptors, limit is %d per request", len(trackIDs), maxIDsPerRequest)
	}

	ids := make([]spotify.ID, len(trackIDs))
	indexByID := make(map[string]int, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
		indexByID[id] = i
	}

	raw, err := c.api.GetAudioFeatures(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("fetching audio descriptors: %w", err)
	}

	out := make([]*features.Vector, len(trackIDs))
	for _, f := range raw {
		if f == nil {
			continue // Track has no audio descriptors
		}
		idx, ok := indexByID[f.ID.String()]
		if !ok {
			continue
		}
		out[idx] = convertDescriptors(f)
	}

	return out, nil
}

// convertDescriptors maps the API payload to a feature vector. Missing
// attributes stay zero so downstream classification remains total.
func convertDescriptors(f *spotify.AudioFeatures) *features.Vector {
	return &features.Vector{
		DurationMS:       float32(f.Duration),
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Key:              float32(f.Key),
		Loudness:         f.Loudness,
		Mode:             float32(f.Mode),
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		TimeSignature:    float32(f.TimeSignature),
	}
}
