package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/marisev/go-spotify-genre-sorter/internal/features"
)

// FetchLikedTracks retrieves tracks from the user's library in the order
// the service returns them (most recently liked first). Pages of 50 are
// requested until the service reports no more pages or limit is reached;
// the result is truncated to limit when set. A limit <= 0 fetches the
// whole library. Any request error aborts the fetch.
func (c *Client) FetchLikedTracks(ctx context.Context, limit int) ([]features.Track, error) {
	var tracks []features.Track

	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("fetching liked tracks: %w", err)
	}

	for {
		for _, saved := range page.Tracks {
			tracks = append(tracks, convertTrack(saved))
		}

		c.logger.Info("fetched liked tracks page", "total", len(tracks))

		if limit > 0 && len(tracks) >= limit {
			return tracks[:limit], nil
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}

	return tracks, nil
}

// convertTrack converts a Spotify SavedTrack to features.Track.
func convertTrack(saved spotify.SavedTrack) features.Track {
	artists := make([]string, len(saved.Artists))
	for i, a := range saved.Artists {
		artists[i] = a.Name
	}

	// Parse AddedAt timestamp, use zero value on failure
	addedAt, _ := time.Parse(time.RFC3339, saved.AddedAt)

	return features.Track{
		ID:         saved.ID.String(),
		Name:       saved.Name,
		Artists:    artists,
		Album:      saved.Album.Name,
		Popularity: int(saved.Popularity),
		Explicit:   saved.Explicit,
		AddedAt:    addedAt,
	}
}
