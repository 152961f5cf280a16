package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// downloadTimeout bounds the preview clip fetch.
const downloadTimeout = 10 * time.Second

// maxClipBytes caps how much preview audio is read. Preview clips are
// ~400 KB; anything past this is a malformed or hostile response.
const maxClipBytes = 10 << 20

// Builder runs the full clip-to-spectrogram pipeline: download, decode,
// normalize, resample, and mel conversion.
type Builder struct {
	httpClient *http.Client
	logger     *log.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithHTTPClient overrides the HTTP client used for clip downloads.
func WithHTTPClient(c *http.Client) BuilderOption {
	return func(b *Builder) {
		b.httpClient = c
	}
}

// NewBuilder creates a Builder with a bounded-timeout HTTP client.
func NewBuilder(logger *log.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromURL downloads a preview clip and converts it to a fixed-shape mel
// spectrogram. Any step failure is returned to the caller; audio issues
// are expected and must not abort batch processing upstream.
func (b *Builder) FromURL(ctx context.Context, previewURL string) (*Spectrogram, error) {
	raw, err := b.fetchClip(ctx, previewURL)
	if err != nil {
		return nil, err
	}

	samples, sampleRate, err := DecodeMono(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	spec, err := Compute(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("built spectrogram", "bytes", len(raw), "source_rate", sampleRate)
	return spec, nil
}

// fetchClip downloads the raw clip bytes. Non-2xx responses and
// timeouts fail the fetch.
func (b *Builder) fetchClip(ctx context.Context, previewURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching preview clip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes))
	if err != nil {
		return nil, fmt.Errorf("reading preview clip: %w", err)
	}
	return raw, nil
}
