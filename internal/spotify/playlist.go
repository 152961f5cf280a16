package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// FetchPlaylists retrieves all of the current user's playlists, paging
// until the service reports no more pages. A request error aborts the
// fetch.
func (c *Client) FetchPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist

	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("fetching playlists: %w", err)
	}

	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, Playlist{
				ID:      p.ID.String(),
				OwnerID: p.Owner.ID,
				Name:    p.Name,
			})
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next playlist page: %w", err)
		}
	}

	return playlists, nil
}

// CreatePlaylist creates a new private playlist for the given user and
// returns its ID.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, false, false)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}
	return playlist.ID.String(), nil
}

// PlaylistTrackIDs returns the IDs of all tracks currently in a playlist.
// Episode items are skipped.
func (c *Client) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string

	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	for {
		for _, item := range page.Items {
			if item.Track.Track != nil {
				ids = append(ids, item.Track.Track.ID.String())
			}
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next item page: %w", err)
		}
	}

	return ids, nil
}

// AddTrackToPlaylist appends a single track to a playlist.
func (c *Client) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID))
	if err != nil {
		return fmt.Errorf("adding track to playlist: %w", err)
	}
	return nil
}
