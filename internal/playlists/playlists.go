// Package playlists idempotently files tracks into genre-named
// playlists on the catalog service.
package playlists

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/marisev/go-spotify-genre-sorter/internal/spotify"
)

// Catalog is the playlist surface of the catalog service the
// synchronizer needs, satisfied by *spotify.Client and by test doubles.
type Catalog interface {
	FetchPlaylists(ctx context.Context) ([]spotify.Playlist, error)
	CreatePlaylist(ctx context.Context, userID, name, description string) (string, error)
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error
}

// Status classifies the outcome of a track sync.
type Status int

const (
	// StatusAdded means the track was written to the playlist.
	StatusAdded Status = iota
	// StatusAlreadyPresent means the track was found in the playlist and
	// no write was issued.
	StatusAlreadyPresent
	// StatusFailed means a request error prevented the sync.
	StatusFailed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusAlreadyPresent:
		return "already-present"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-track sync result. Err is set for StatusFailed.
type Outcome struct {
	Status Status
	Err    error
}

// Synchronizer ensures genre playlists exist and contain their tracks.
// Both operations are safe under worker-parallel fan-out: the
// check-then-create sequence is serialized per (user, genre) and the
// membership fetch-then-write per playlist.
type Synchronizer struct {
	catalog Catalog
	logger  *log.Logger

	mu            sync.Mutex
	genreLocks    map[string]*sync.Mutex
	playlistLocks map[string]*sync.Mutex
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(catalog Catalog, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		catalog:       catalog,
		logger:        logger,
		genreLocks:    make(map[string]*sync.Mutex),
		playlistLocks: make(map[string]*sync.Mutex),
	}
}

// EnsurePlaylist returns the ID of the user's playlist whose name
// matches genre case-insensitively, creating a private playlist named
// exactly genre if none exists. Concurrent callers for the same
// (user, genre) serialize on an advisory lock so only one creates.
func (s *Synchronizer) EnsurePlaylist(ctx context.Context, userID, genre string) (string, error) {
	lock := s.lockFor(s.genreLocks, userID+"\x00"+strings.ToLower(genre))
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.catalog.FetchPlaylists(ctx)
	if err != nil {
		return "", fmt.Errorf("listing playlists: %w", err)
	}

	for _, p := range existing {
		if strings.EqualFold(p.Name, genre) {
			return p.ID, nil
		}
	}

	description := fmt.Sprintf("Auto-created playlist for %s songs", genre)
	id, err := s.catalog.CreatePlaylist(ctx, userID, genre, description)
	if err != nil {
		return "", fmt.Errorf("creating playlist %q: %w", genre, err)
	}

	s.logger.Info("created genre playlist", "genre", genre, "playlist", id)
	return id, nil
}

// EnsureTrackInPlaylist adds a track to a playlist only if it is not
// already a member. Calling it twice with the same arguments performs
// at most one write and both calls succeed. Request errors are caught
// here and reported in the outcome, never propagated; a single track's
// failure must not abort its siblings.
func (s *Synchronizer) EnsureTrackInPlaylist(ctx context.Context, playlistID, trackID string) Outcome {
	lock := s.lockFor(s.playlistLocks, playlistID)
	lock.Lock()
	defer lock.Unlock()

	members, err := s.catalog.PlaylistTrackIDs(ctx, playlistID)
	if err != nil {
		s.logger.Warn("membership fetch failed", "playlist", playlistID, "track", trackID, "err", err)
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("fetching membership: %w", err)}
	}

	for _, id := range members {
		if id == trackID {
			return Outcome{Status: StatusAlreadyPresent}
		}
	}

	if err := s.catalog.AddTrackToPlaylist(ctx, playlistID, trackID); err != nil {
		s.logger.Warn("track add failed", "playlist", playlistID, "track", trackID, "err", err)
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("adding track: %w", err)}
	}

	return Outcome{Status: StatusAdded}
}

// lockFor returns the advisory lock for a key, creating it on first
// use.
func (s *Synchronizer) lockFor(locks map[string]*sync.Mutex, key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	locks[key] = l
	return l
}
