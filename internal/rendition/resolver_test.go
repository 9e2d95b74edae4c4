package rendition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-lightbox/internal/mediatypes"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, progress func(float64)) (*mediatypes.ImageHandle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	err := f.failFor[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	progress(0.5)
	progress(1)
	return &mediatypes.ImageHandle{URL: url, Data: []byte(url)}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeInfo struct {
	mu     sync.Mutex
	widths []int
	err    error
}

func (f *fakeInfo) ThumbnailInfo(_ context.Context, fileTitle string, width int) (*mediatypes.Thumbnail, error) {
	f.mu.Lock()
	f.widths = append(f.widths, width)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &mediatypes.Thumbnail{
		URL:    fmt.Sprintf("https://upload.example.org/real/%dpx-%s", width, mediatypes.FileNameFromTitle(fileTitle)),
		Width:  width,
		Height: width / 2,
	}, nil
}

type fakeGuesser struct {
	calls int
	err   error
}

func (g *fakeGuesser) GuessThumbnail(_ context.Context, fileTitle, _ string, width, originalWidth, originalHeight int) (*mediatypes.Thumbnail, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &mediatypes.Thumbnail{
		URL:    fmt.Sprintf("https://upload.example.org/guess/%dpx-%s", width, mediatypes.FileNameFromTitle(fileTitle)),
		Width:  width,
		Height: width * originalHeight / originalWidth,
	}, nil
}

func guessableRequest() Request {
	return Request{
		FileTitle:      "File:Foo.jpg",
		TargetWidth:    640,
		SampleURL:      "https://upload.example.org/thumb/a/ab/Foo.jpg/220px-Foo.jpg",
		OriginalWidth:  1000,
		OriginalHeight: 500,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRequestWidthClamp(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"narrower than original", Request{TargetWidth: 640, OriginalWidth: 1000}, 640},
		{"wider than original", Request{TargetWidth: 1280, OriginalWidth: 1000}, 1000},
		{"original unknown", Request{TargetWidth: 1280}, 1280},
		{"equal", Request{TargetWidth: 1000, OriginalWidth: 1000}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Width())
		})
	}
}

func TestResolveClampsAuthoritativeWidth(t *testing.T) {
	info := &fakeInfo{}
	r := NewResolver(&fakeFetcher{}, info)

	req := Request{FileTitle: "File:Foo.jpg", TargetWidth: 2560, OriginalWidth: 800, OriginalHeight: 600}
	res, err := r.Resolve(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{800}, info.widths)
	assert.Equal(t, 800, res.Thumbnail.Width)
}

func TestGuessSuccessFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	info := &fakeInfo{}
	guesser := &fakeGuesser{}
	r := NewResolver(fetcher, info, WithGuesser(guesser))

	res, err := r.Resolve(context.Background(), guessableRequest(), nil)
	require.NoError(t, err)

	assert.True(t, res.Guessed)
	assert.Len(t, fetcher.Calls(), 1)
	assert.Empty(t, info.widths, "authoritative provider not consulted")
	assert.Equal(t, "https://upload.example.org/guess/640px-Foo.jpg", res.Thumbnail.URL)
	assert.Equal(t, 320, res.Thumbnail.Height)
}

func TestGuessFetchFailureRetriesAuthoritativeOnce(t *testing.T) {
	fetcher := &fakeFetcher{failFor: map[string]error{
		"https://upload.example.org/guess/640px-Foo.jpg": errors.New("404"),
	}}
	info := &fakeInfo{}
	r := NewResolver(fetcher, info, WithGuesser(&fakeGuesser{}))

	res, err := r.Resolve(context.Background(), guessableRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://upload.example.org/guess/640px-Foo.jpg",
		"https://upload.example.org/real/640px-Foo.jpg",
	}, fetcher.Calls())
	assert.False(t, res.Guessed)
	assert.Equal(t, "https://upload.example.org/real/640px-Foo.jpg", res.Image.URL)
}

func TestGuessRejectedMatchesAuthoritativePath(t *testing.T) {
	guessed := NewResolver(&fakeFetcher{}, &fakeInfo{}, WithGuesser(&fakeGuesser{err: errors.New("no pattern")}))
	direct := NewResolver(&fakeFetcher{}, &fakeInfo{})

	req := guessableRequest()
	a, err := guessed.Resolve(context.Background(), req, nil)
	require.NoError(t, err)
	b, err := direct.Resolve(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, b.Thumbnail, a.Thumbnail)
	assert.Equal(t, b.Image.URL, a.Image.URL)
}

func TestAuthoritativeFailureAfterFallbackIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{failFor: map[string]error{
		"https://upload.example.org/guess/640px-Foo.jpg": errors.New("guess 404"),
		"https://upload.example.org/real/640px-Foo.jpg":  errors.New("real 500"),
	}}
	r := NewResolver(fetcher, &fakeInfo{}, WithGuesser(&fakeGuesser{}))

	res, err := r.Resolve(context.Background(), guessableRequest(), nil)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "real 500")
	assert.Len(t, fetcher.Calls(), 2, "no second structural retry")
}

func TestGuessingSkippedWithoutInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no sample URL", func(r *Request) { r.SampleURL = "" }},
		{"no original width", func(r *Request) { r.OriginalWidth = 0 }},
		{"no original height", func(r *Request) { r.OriginalHeight = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guesser := &fakeGuesser{}
			fetcher := &fakeFetcher{}
			r := NewResolver(fetcher, &fakeInfo{}, WithGuesser(guesser))

			req := guessableRequest()
			tt.mutate(&req)
			_, err := r.Resolve(context.Background(), req, nil)
			require.NoError(t, err)

			assert.Zero(t, guesser.calls)
			assert.Len(t, fetcher.Calls(), 1)
		})
	}
}

func TestGuessingDisabled(t *testing.T) {
	guesser := &fakeGuesser{}
	r := NewResolver(&fakeFetcher{}, &fakeInfo{}, WithGuesser(guesser), WithGuessing(false))

	res, err := r.Resolve(context.Background(), guessableRequest(), nil)
	require.NoError(t, err)
	assert.False(t, res.Guessed)
	assert.Zero(t, guesser.calls)
	assert.False(t, r.GuessingEnabled())
}

func TestInvalidRequest(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, &fakeInfo{})

	_, err := r.Resolve(context.Background(), Request{TargetWidth: 100}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = r.Resolve(context.Background(), Request{FileTitle: "File:Foo.jpg", TargetWidth: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestZeroWidthSkipsGuessing(t *testing.T) {
	guesser := &fakeGuesser{}
	info := &fakeInfo{}
	r := NewResolver(&fakeFetcher{}, info, WithGuesser(guesser), WithGuessing(true))

	req := guessableRequest()
	req.TargetWidth = 0

	res, err := r.Resolve(context.Background(), req, nil)
	require.NoError(t, err)
	assert.False(t, res.Guessed)
	assert.Zero(t, guesser.calls)
	assert.Equal(t, []int{0}, info.widths)
}

func TestThumbnailInfoFailure(t *testing.T) {
	boom := errors.New("api down")
	r := NewResolver(&fakeFetcher{}, &fakeInfo{err: boom})

	_, err := r.Resolve(context.Background(), guessableRequest(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestCancelledContextDoesNotFallBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	info := &fakeInfo{}
	r := NewResolver(&fakeFetcher{}, info, WithGuesser(&fakeGuesser{err: errors.New("cancelled upstream")}))

	_, err := r.Resolve(ctx, guessableRequest(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, info.widths)
}

func TestProgressForwarded(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, &fakeInfo{})

	var got []float64
	_, err := r.Resolve(context.Background(), guessableRequest(), func(p float64) {
		got = append(got, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1}, got)
}
