package rendition

import (
	"context"
	"errors"
	"fmt"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metrics"
)

var logger = logging.For("rendition")

// ErrInvalidRequest is returned for requests without a file or a positive width.
var ErrInvalidRequest = errors.New("invalid rendition request")

// ImageFetcher downloads rendition bytes. Progress receives fractions in [0,1].
type ImageFetcher interface {
	Fetch(ctx context.Context, url string, progress func(float64)) (*mediatypes.ImageHandle, error)
}

// ThumbnailInfoProvider returns the authoritative rendition URL for a width.
type ThumbnailInfoProvider interface {
	ThumbnailInfo(ctx context.Context, fileTitle string, width int) (*mediatypes.Thumbnail, error)
}

// ThumbnailGuesser derives a rendition URL from another rendition of the same file.
// It returns an error when the URL cannot be derived.
type ThumbnailGuesser interface {
	GuessThumbnail(ctx context.Context, fileTitle, sampleURL string, width, originalWidth, originalHeight int) (*mediatypes.Thumbnail, error)
}

// Request describes one rendition to resolve.
type Request struct {
	FileTitle      string
	TargetWidth    int
	SampleURL      string
	OriginalWidth  int
	OriginalHeight int
}

// Width returns the width actually requested: never larger than the original.
func (r Request) Width() int {
	if r.OriginalWidth > 0 && r.TargetWidth > r.OriginalWidth {
		return r.OriginalWidth
	}
	return r.TargetWidth
}

func (r Request) canGuess() bool {
	return r.SampleURL != "" && r.OriginalWidth > 0 && r.OriginalHeight > 0 && r.TargetWidth > 0
}

// Resolved is a rendition descriptor with its bytes.
type Resolved struct {
	Thumbnail mediatypes.Thumbnail
	Image     *mediatypes.ImageHandle
	// Guessed is true when the speculative URL was used.
	Guessed bool
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeFallback
	outcomeFailure
)

// outcome is the result of one resolution step.
type outcome struct {
	kind     outcomeKind
	resolved *Resolved
	err      error
}

func success(r *Resolved) outcome { return outcome{kind: outcomeSuccess, resolved: r} }
func fallback(err error) outcome { return outcome{kind: outcomeFallback, err: err} }
func failure(err error) outcome { return outcome{kind: outcomeFailure, err: err} }

// Resolver picks the rendition URL for a width and fetches its bytes.
type Resolver struct {
	fetcher     ImageFetcher
	info        ThumbnailInfoProvider
	guesser     ThumbnailGuesser
	useGuessing bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGuesser enables speculative URLs through g.
func WithGuesser(g ThumbnailGuesser) Option {
	return func(r *Resolver) {
		r.guesser = g
		r.useGuessing = g != nil
	}
}

// WithGuessing toggles speculative URLs without removing the guesser.
func WithGuessing(enabled bool) Option {
	return func(r *Resolver) {
		r.useGuessing = enabled
	}
}

// NewResolver creates a resolver over an authoritative URL provider and a byte fetcher.
func NewResolver(fetcher ImageFetcher, info ThumbnailInfoProvider, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		info:    info,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GuessingEnabled reports whether speculative URLs are tried.
func (r *Resolver) GuessingEnabled() bool {
	return r.useGuessing && r.guesser != nil
}

// Resolve returns the rendition and its bytes, or one terminal error.
// A failed guess is retried once through the authoritative provider.
func (r *Resolver) Resolve(ctx context.Context, req Request, progress func(float64)) (*Resolved, error) {
	// Width 0 is valid and always resolves authoritatively.
	if req.FileTitle == "" || req.TargetWidth < 0 {
		return nil, fmt.Errorf("%w: file %q width %d", ErrInvalidRequest, req.FileTitle, req.TargetWidth)
	}
	if progress == nil {
		progress = func(float64) {}
	}

	width := req.Width()

	if r.GuessingEnabled() && req.canGuess() {
		out := r.speculative(ctx, req, width, progress)
		switch out.kind {
		case outcomeSuccess:
			metrics.RenditionResolutionsTotal.WithLabelValues("guessed", "success").Inc()
			return out.resolved, nil
		case outcomeFailure:
			metrics.RenditionResolutionsTotal.WithLabelValues("guessed", "error").Inc()
			return nil, out.err
		case outcomeFallback:
			logger.Debug("falling back to authoritative URL for %s@%d: %v", req.FileTitle, width, out.err)
		}
	}

	out := r.authoritative(ctx, req.FileTitle, width, progress)
	switch out.kind {
	case outcomeSuccess:
		metrics.RenditionResolutionsTotal.WithLabelValues("authoritative", "success").Inc()
		return out.resolved, nil
	default:
		metrics.RenditionResolutionsTotal.WithLabelValues("authoritative", "error").Inc()
		return nil, out.err
	}
}

// ThumbnailInfo returns the authoritative rendition descriptor without fetching bytes.
func (r *Resolver) ThumbnailInfo(ctx context.Context, fileTitle string, width int) (*mediatypes.Thumbnail, error) {
	return r.info.ThumbnailInfo(ctx, fileTitle, width)
}

func (r *Resolver) speculative(ctx context.Context, req Request, width int, progress func(float64)) outcome {
	thumb, err := r.guesser.GuessThumbnail(ctx, req.FileTitle, req.SampleURL, width, req.OriginalWidth, req.OriginalHeight)
	if err != nil {
		if ctx.Err() != nil {
			return failure(ctx.Err())
		}
		metrics.ThumbnailGuessesTotal.WithLabelValues("rejected").Inc()
		return fallback(err)
	}

	image, err := r.fetcher.Fetch(ctx, thumb.URL, progress)
	if err != nil {
		if ctx.Err() != nil {
			return failure(ctx.Err())
		}
		metrics.ThumbnailGuessesTotal.WithLabelValues("fetch_failed").Inc()
		return fallback(err)
	}

	metrics.ThumbnailGuessesTotal.WithLabelValues("hit").Inc()
	return success(&Resolved{Thumbnail: *thumb, Image: image, Guessed: true})
}

func (r *Resolver) authoritative(ctx context.Context, fileTitle string, width int, progress func(float64)) outcome {
	thumb, err := r.info.ThumbnailInfo(ctx, fileTitle, width)
	if err != nil {
		return failure(fmt.Errorf("thumbnail info for %s: %w", fileTitle, err))
	}

	image, err := r.fetcher.Fetch(ctx, thumb.URL, progress)
	if err != nil {
		return failure(fmt.Errorf("fetch %s: %w", thumb.URL, err))
	}

	return success(&Resolved{Thumbnail: *thumb, Image: image})
}
