package mwapi

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"media-lightbox/internal/mediatypes"
)

var (
	// .../thumb/a/ab/Foo.jpg/120px-Foo.jpg (with an optional prefix such as "page1-")
	thumbSizePattern = regexp.MustCompile(`^(.*/thumb/.*/[^/]*?)(\d+)(px-[^/]+)$`)
	// .../a/ab/Foo.jpg
	fullURLPattern = regexp.MustCompile(`^(.*)/([0-9a-f])/([0-9a-f]{2})/([^/]+)$`)
)

// GuessedThumbnailInfo derives rendition URLs from another rendition URL of
// the same file, following the thumbnail URL layout of MediaWiki. It makes
// no requests; a wrong guess is only discovered when the URL is fetched.
type GuessedThumbnailInfo struct{}

// NewGuessedThumbnailInfo creates the guesser.
func NewGuessedThumbnailInfo() *GuessedThumbnailInfo {
	return &GuessedThumbnailInfo{}
}

// GuessThumbnail returns the rendition of fileTitle at width. Raster files
// are never scaled up: a width reaching the original yields the original
// file. Vector files always yield a rendered thumbnail.
func (g *GuessedThumbnailInfo) GuessThumbnail(_ context.Context, fileTitle, sampleURL string, width, originalWidth, originalHeight int) (*mediatypes.Thumbnail, error) {
	if sampleURL == "" || width <= 0 || originalWidth <= 0 || originalHeight <= 0 {
		return nil, ErrCannotGuess
	}

	sample := stripQuery(sampleURL)
	vector := mediatypes.FormatOf(fileTitle) == mediatypes.FormatVector

	if width >= originalWidth && !vector {
		full, err := fullURL(sample)
		if err != nil {
			return nil, err
		}
		return &mediatypes.Thumbnail{URL: full, Width: originalWidth, Height: originalHeight}, nil
	}

	var guessed string
	if m := thumbSizePattern.FindStringSubmatch(sample); m != nil {
		guessed = fmt.Sprintf("%s%d%s", m[1], width, m[3])
	} else {
		var err error
		if guessed, err = thumbURL(sample, width, vector); err != nil {
			return nil, err
		}
	}

	height := int(math.Round(float64(width) * float64(originalHeight) / float64(originalWidth)))
	return &mediatypes.Thumbnail{URL: guessed, Width: width, Height: height}, nil
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i != -1 {
		return u[:i]
	}
	return u
}

func isThumbURL(u string) bool {
	return strings.Contains(u, "/thumb/")
}

// fullURL turns a rendition URL into the URL of the original file.
func fullURL(u string) (string, error) {
	if !isThumbURL(u) {
		if fullURLPattern.MatchString(u) {
			return u, nil
		}
		return "", fmt.Errorf("%w: %s is not a file URL", ErrCannotGuess, u)
	}

	u = strings.Replace(u, "/thumb/", "/", 1)
	i := strings.LastIndex(u, "/")
	if i <= 0 {
		return "", fmt.Errorf("%w: %s", ErrCannotGuess, u)
	}
	return u[:i], nil
}

// thumbURL turns the URL of an original file into a rendition URL. Vector
// files are rendered as PNG.
func thumbURL(u string, width int, vector bool) (string, error) {
	m := fullURLPattern.FindStringSubmatch(u)
	if m == nil {
		return "", fmt.Errorf("%w: %s is not a file URL", ErrCannotGuess, u)
	}

	name := m[4]
	thumbName := fmt.Sprintf("%dpx-%s", width, name)
	if vector {
		thumbName += ".png"
	}
	return fmt.Sprintf("%s/thumb/%s/%s/%s/%s", m[1], m[2], m[3], name, thumbName), nil
}
