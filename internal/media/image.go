package media

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	"media-lightbox/internal/logging"
)

const (
	// MaxImageDimension is the maximum width or height we'll decode at
	// full size. Larger images are downscaled first.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll decode.
	MaxImagePixels = 20_000_000 // ~20MP, uses ~80MB in RGBA
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
	Format string
}

// DecodeDimensions returns image dimensions and format without fully
// decoding the image.
func DecodeDimensions(data []byte) (*ImageDimensions, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height, Format: format}, nil
}

// DecodeConstrained decodes an image, downscaling it if it exceeds the
// given limits.
func DecodeConstrained(data []byte, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	targetWidth, targetHeight := constrain(width, height, maxDimension, maxPixels)
	if targetWidth == width && targetHeight == height {
		return img, nil
	}

	logging.Debug("Constraining image from %dx%d to %dx%d", width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// constrain scales width x height down to fit maxDimension and maxPixels,
// keeping the aspect ratio.
func constrain(width, height, maxDimension, maxPixels int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	targetWidth, targetHeight := width, height

	// First, constrain by max dimension
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	// Then, constrain by total pixels if still too large
	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetPixels))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	return max(targetWidth, 1), max(targetHeight, 1)
}
