// Package sorter drives the pipeline that files liked songs into
// genre playlists: catalog read, feature resolution, classification,
// and idempotent playlist sync.
package sorter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/marisev/go-spotify-genre-sorter/internal/classify"
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
	"github.com/marisev/go-spotify-genre-sorter/internal/playlists"
)

// Library is the catalog read surface the sorter needs.
type Library interface {
	UserID(ctx context.Context) (string, error)
	FetchLikedTracks(ctx context.Context, limit int) ([]features.Track, error)
}

// Resolver produces a feature representation per track.
type Resolver interface {
	ResolveBatch(ctx context.Context, tracks []features.Track) map[string]features.Result
}

// Classifier assigns a genre to a feature result.
type Classifier interface {
	Classify(result features.Result) (classify.ClassificationResult, error)
}

// Synchronizer reconciles playlist existence and membership.
type Synchronizer interface {
	EnsurePlaylist(ctx context.Context, userID, genre string) (string, error)
	EnsureTrackInPlaylist(ctx context.Context, playlistID, trackID string) playlists.Outcome
}

// GenreStats is the per-genre slice of a run summary.
type GenreStats struct {
	Sorted int `json:"sorted"`
	Failed int `json:"failed"`
}

// Summary is the only externally visible state a run produces:
// aggregate counts plus a per-genre breakdown. Individual failure
// reasons are logged for diagnostics but never interrupt a run.
type Summary struct {
	RunID     string                `json:"run_id"`
	Processed int                   `json:"processed"`
	Sorted    int                   `json:"sorted"`
	Skipped   int                   `json:"skipped"`
	Failed    int                   `json:"failed"`
	ByGenre   map[string]GenreStats `json:"by_genre"`
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration"`
}

// Service orchestrates one sorting pass over the user's library.
type Service struct {
	library      Library
	resolver     Resolver
	classifier   Classifier
	synchronizer Synchronizer
	logger       *log.Logger
}

// NewService creates a sorter service from its collaborators.
func NewService(library Library, resolver Resolver, classifier Classifier, synchronizer Synchronizer, logger *log.Logger) *Service {
	return &Service{
		library:      library,
		resolver:     resolver,
		classifier:   classifier,
		synchronizer: synchronizer,
		logger:       logger,
	}
}

// SortLikedSongs fetches up to limit liked tracks (all when limit <= 0),
// classifies each, and files it into its genre playlist. Tracks are
// processed sequentially; once a track's classification/sync sequence
// starts it runs to completion or failure before the next track.
// Per-track failures are recorded in the summary and processing
// continues; a failing library fetch is systemic and aborts the run.
func (s *Service) SortLikedSongs(ctx context.Context, limit int) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		RunID:     uuid.NewString(),
		ByGenre:   make(map[string]GenreStats),
		StartedAt: started,
	}

	userID, err := s.library.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	tracks, err := s.library.FetchLikedTracks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching liked tracks: %w", err)
	}

	resolved := s.resolver.ResolveBatch(ctx, tracks)

	// Playlist IDs are cached per run so each genre is resolved once.
	playlistByGenre := make(map[string]string)

	for _, track := range tracks {
		summary.Processed++
		s.sortTrack(ctx, userID, track, resolved[track.ID], playlistByGenre, summary)
	}

	summary.Duration = time.Since(started)
	s.logger.Info("sort run finished",
		"run", summary.RunID,
		"processed", summary.Processed,
		"sorted", summary.Sorted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.Duration)
	return summary, nil
}

// sortTrack classifies and syncs a single track, recording the outcome.
func (s *Service) sortTrack(ctx context.Context, userID string, track features.Track, result features.Result, playlistByGenre map[string]string, summary *Summary) {
	if result.Kind() == features.KindUnavailable {
		s.logger.Debug("skipping track without features", "track", track.ID, "reason", result.Reason())
		summary.Skipped++
		return
	}

	classification, err := s.classifier.Classify(result)
	if err != nil {
		if errors.Is(err, classify.ErrModelUnavailable) {
			// Spectrogram input with no spectrogram model; nothing to do
			// for this track beyond counting it.
			summary.Skipped++
			return
		}
		s.logger.Warn("classification failed", "track", track.ID, "err", err)
		summary.Failed++
		return
	}

	genre := classification.Label
	playlistID, ok := playlistByGenre[genre]
	if !ok {
		playlistID, err = s.synchronizer.EnsurePlaylist(ctx, userID, genre)
		if err != nil {
			s.logger.Warn("playlist resolution failed", "track", track.ID, "genre", genre, "err", err)
			summary.Failed++
			s.recordGenre(summary, genre, false)
			return
		}
		playlistByGenre[genre] = playlistID
	}

	outcome := s.synchronizer.EnsureTrackInPlaylist(ctx, playlistID, track.ID)
	switch outcome.Status {
	case playlists.StatusAdded, playlists.StatusAlreadyPresent:
		s.logger.Debug("track sorted",
			"track", track.ID,
			"genre", genre,
			"status", outcome.Status.String(),
			"source", classification.Source,
			"confidence", classification.Confidence)
		summary.Sorted++
		s.recordGenre(summary, genre, true)
	case playlists.StatusFailed:
		summary.Failed++
		s.recordGenre(summary, genre, false)
	}
}

func (s *Service) recordGenre(summary *Summary, genre string, sorted bool) {
	stats := summary.ByGenre[genre]
	if sorted {
		stats.Sorted++
	} else {
		stats.Failed++
	}
	summary.ByGenre[genre] = stats
}
