package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultBlurSigma is the blur applied to placeholders.
const DefaultBlurSigma = 6

// RenderPlaceholder scales the page thumbnail in data up to width x height,
// blurs it and encodes it as JPEG. It stands in for the real rendition until
// that arrives.
func RenderPlaceholder(data []byte, width, height int, sigma float64) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid placeholder size %dx%d", width, height)
	}

	img, err := DecodeConstrained(data, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, err
	}

	w, h := constrain(width, height, MaxImageDimension, MaxImagePixels)
	scaled := imaging.Resize(img, w, h, imaging.Linear)
	if sigma > 0 {
		scaled = imaging.Blur(scaled, sigma)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
