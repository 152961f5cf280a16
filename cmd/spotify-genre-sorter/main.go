// Command spotify-genre-sorter files a user's liked Spotify tracks into
// genre playlists, classifying each track from its audio descriptors or
// from a preview clip.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/marisev/go-spotify-genre-sorter/internal/audio"
	"github.com/marisev/go-spotify-genre-sorter/internal/auth"
	"github.com/marisev/go-spotify-genre-sorter/internal/classify"
	"github.com/marisev/go-spotify-genre-sorter/internal/deezer"
	"github.com/marisev/go-spotify-genre-sorter/internal/features"
	"github.com/marisev/go-spotify-genre-sorter/internal/playlists"
	"github.com/marisev/go-spotify-genre-sorter/internal/sorter"
	"github.com/marisev/go-spotify-genre-sorter/internal/spotify"
	"github.com/marisev/go-spotify-genre-sorter/internal/web"
)

// defaultAddr resolves the listen address from SORTER_ADDR, falling
// back to the package default.
func defaultAddr() string {
	if addr := os.Getenv("SORTER_ADDR"); addr != "" {
		return addr
	}
	return web.DefaultAddr
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		limit = flag.Int("limit", 0, "maximum number of liked tracks to process (0 = all)")
		serve = flag.Bool("serve", false, "start the HTTP server instead of running one sorting pass")
		addr  = flag.String("addr", defaultAddr(), "listen address for -serve")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	authenticator, err := auth.New()
	if err != nil {
		return err
	}

	ctx := context.Background()
	api, err := authenticator.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	client := spotify.New(api, logger.With("component", "spotify"))
	classifier := classify.New(os.Getenv("GENRE_MODEL_DIR"), logger.With("component", "classify"))

	// The preview-clip path only pays off when a spectrogram model is
	// loaded; without one its output could never be classified.
	var (
		previews features.PreviewSource
		clips    features.ClipSource
	)
	if classifier.SpectrogramCapable() {
		previews = deezer.NewClient(logger.With("component", "deezer"))
		clips = audio.NewBuilder(logger.With("component", "audio"))
	}

	provider := features.NewProvider(client, previews, clips, logger.With("component", "features"))
	synchronizer := playlists.NewSynchronizer(client, logger.With("component", "playlists"))
	service := sorter.NewService(client, provider, classifier, synchronizer, logger.With("component", "sorter"))

	if *serve {
		server := web.NewServer(web.ServerConfig{Addr: *addr}, service, logger.With("component", "web"))
		return server.Run()
	}

	summary, err := service.SortLikedSongs(ctx, *limit)
	if err != nil {
		return fmt.Errorf("sorting liked songs: %w", err)
	}

	fmt.Printf("Processed %d tracks: %d sorted, %d skipped, %d failed.\n",
		summary.Processed, summary.Sorted, summary.Skipped, summary.Failed)
	for genre, stats := range summary.ByGenre {
		fmt.Printf("  %-12s %d sorted, %d failed\n", genre, stats.Sorted, stats.Failed)
	}
	return nil
}
