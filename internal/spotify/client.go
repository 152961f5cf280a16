// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
)

// maxIDsPerRequest is the Spotify API batch limit for ID-keyed endpoints.
const maxIDsPerRequest = 100

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api    *spotify.Client
	logger *log.Logger
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, logger *log.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}
