package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metrics"
)

var logger = logging.For("media")

// DefaultCacheBytes is the default budget of the rendition cache.
const DefaultCacheBytes = 64 << 20

// DefaultMaxImageBytes caps a single download.
const DefaultMaxImageBytes = 50 << 20

// ErrNotImage is returned when a response body is not a decodable image.
var ErrNotImage = errors.New("response is not an image")

// FetchError is a non-2xx response for a rendition URL.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetcher downloads rendition bytes over HTTP and keeps recent ones in memory.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	cache      *byteCache
	group      singleflight.Group
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchClient sets the HTTP client.
func WithFetchClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithCacheBytes sets the in-memory cache budget; 0 disables the cache.
func WithCacheBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.cache = newByteCache(n)
	}
}

// WithFetchUserAgent sets the User-Agent header.
func WithFetchUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  "media-lightbox/1.0",
		maxBytes:   DefaultMaxImageBytes,
		cache:      newByteCache(DefaultCacheBytes),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CacheBytes returns the bytes held in the cache.
func (f *Fetcher) CacheBytes() int64 {
	return f.cache.bytes()
}

// TrimCache evicts cached renditions until at most fraction of the budget is
// used. It returns the bytes freed.
func (f *Fetcher) TrimCache(fraction float64) int64 {
	freed := f.cache.shrink(int64(float64(f.cache.maxBytes) * fraction))
	if freed > 0 {
		metrics.ImageCacheBytes.Set(float64(f.cache.bytes()))
	}
	return freed
}

// Fetch downloads url. progress receives the downloaded fraction when the
// size is known, and always 1 on success.
func (f *Fetcher) Fetch(ctx context.Context, url string, progress func(float64)) (*mediatypes.ImageHandle, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	if handle, ok := f.cache.get(url); ok {
		metrics.ImageFetchesTotal.WithLabelValues("cached").Inc()
		progress(1)
		return handle, nil
	}

	// Only the leading caller sees intermediate progress.
	ch := f.group.DoChan(url, func() (any, error) {
		return f.download(context.WithoutCancel(ctx), url, progress)
	})

	var result singleflight.Result
	select {
	case result = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if result.Err != nil {
		return nil, result.Err
	}

	progress(1)
	return result.Val.(*mediatypes.ImageHandle), nil
}

func (f *Fetcher) download(ctx context.Context, url string, progress func(float64)) (handle *mediatypes.ImageHandle, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ImageFetchesTotal.WithLabelValues(status).Inc()
		metrics.ImageFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	total, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if total > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %d bytes exceeds limit", url, total)
	}

	body := &progressReader{r: io.LimitReader(resp.Body, f.maxBytes+1), total: total, report: progress}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", url, f.maxBytes)
	}
	metrics.ImageFetchBytes.Add(float64(len(data)))

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	handle = &mediatypes.ImageHandle{
		URL:         url,
		Data:        data,
		ContentType: contentType,
		Size:        len(data),
	}

	if contentType == "image/svg+xml" {
		handle.Format = "svg"
	} else {
		dims, err := DecodeDimensions(data)
		if err != nil {
			metrics.ImageDecodeByFormat.WithLabelValues("unknown").Inc()
			return nil, fmt.Errorf("%w: %s (%s): %v", ErrNotImage, url, contentType, err)
		}
		handle.Format = dims.Format
		handle.Width = dims.Width
		handle.Height = dims.Height
	}
	metrics.ImageDecodeByFormat.WithLabelValues(handle.Format).Inc()

	f.cache.add(url, handle)
	metrics.ImageCacheBytes.Set(float64(f.cache.bytes()))
	logger.Debug("fetched %s (%d bytes, %s %dx%d) in %v", url, handle.Size, handle.Format, handle.Width, handle.Height, time.Since(start))
	return handle, nil
}

// progressReader reports the fraction read so far.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(min(float64(p.read)/float64(p.total), 1))
	}
	return n, err
}
