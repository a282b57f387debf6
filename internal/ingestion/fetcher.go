package ingestion

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/jonathan/resume-versions/internal/fetch"
	"github.com/jonathan/resume-versions/internal/logger"
)

// DefaultMaxDescriptionRunes bounds the description text passed into a prompt
const DefaultMaxDescriptionRunes = 20000

// ErrEmptyPosting is returned when a page yields no description text
var ErrEmptyPosting = errors.New("job posting has no readable text")

// Fetcher resolves job posting URLs into cleaned description text
type Fetcher struct {
	opts     *fetch.Options
	maxRunes int
	log      *logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithFetchOptions overrides the HTTP options
func WithFetchOptions(opts *fetch.Options) FetcherOption {
	return func(f *Fetcher) { f.opts = opts }
}

// WithMaxRunes overrides DefaultMaxDescriptionRunes. Zero disables truncation.
func WithMaxRunes(n int) FetcherOption {
	return func(f *Fetcher) { f.maxRunes = n }
}

// NewFetcher creates a Fetcher with default HTTP options
func NewFetcher(log *logger.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	f := &Fetcher{
		opts:     fetch.DefaultOptions(),
		maxRunes: DefaultMaxDescriptionRunes,
		log:      log.With("component", "job_fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchJobDescription downloads rawURL and extracts the posting body using the selectors of the
// detected job board. Plain text responses are used as-is.
func (f *Fetcher) FetchJobDescription(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	platform := fetch.DetectPlatform(rawURL)

	page, err := fetch.URL(ctx, rawURL, f.opts)
	if err != nil {
		f.log.Warn("job posting fetch failed", "url", rawURL, "platform", string(platform), "error", err)
		return "", err
	}

	var text string
	if isPlainText(page.ContentType) {
		text = page.HTML
	} else {
		text, err = fetch.ExtractMainText(page.HTML,
			fetch.PlatformContentSelectors(platform),
			fetch.PlatformNoiseSelectors(platform)...)
		if err != nil {
			return "", fmt.Errorf("failed to extract job posting text: %w", err)
		}
	}

	text = CleanText(text)
	if text == "" {
		return "", &fetch.Error{URL: rawURL, Message: "no description found", StatusCode: page.StatusCode, Cause: ErrEmptyPosting}
	}

	text, truncated := Truncate(text, f.maxRunes)
	f.log.Info("job posting fetched",
		"url", rawURL,
		"platform", string(platform),
		"chars", len(text),
		"truncated", truncated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func isPlainText(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/plain"
}
