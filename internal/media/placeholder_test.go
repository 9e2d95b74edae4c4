package media

import (
	"bytes"
	"image/jpeg"
	"testing"
)

func TestRenderPlaceholder(t *testing.T) {
	thumb := createTestImage(t, 120, 90, "jpeg")

	out, err := RenderPlaceholder(thumb, 640, 480, DefaultBlurSigma)
	if err != nil {
		t.Fatalf("RenderPlaceholder() error = %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("placeholder is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("placeholder size = %dx%d, want 640x480", b.Dx(), b.Dy())
	}
}

func TestRenderPlaceholderWithoutBlur(t *testing.T) {
	if _, err := RenderPlaceholder(createTestImage(t, 40, 40, "png"), 80, 80, 0); err != nil {
		t.Fatalf("RenderPlaceholder() error = %v", err)
	}
}

func TestRenderPlaceholderErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		width  int
		height int
	}{
		{"zero size", createTestImage(t, 10, 10, "png"), 0, 100},
		{"not an image", []byte("nope"), 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RenderPlaceholder(tt.data, tt.width, tt.height, DefaultBlurSigma); err == nil {
				t.Error("expected error")
			}
		})
	}
}
