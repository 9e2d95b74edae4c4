package mediatypes

import (
	"path"
	"strings"
)

// ImageFormat classifies a file by how its renditions can be produced.
type ImageFormat string

const (
	// FormatRaster is a bitmap format; renditions never exceed the original width.
	FormatRaster ImageFormat = "raster"
	// FormatVector is a scalable format; renditions may be larger than the original.
	FormatVector ImageFormat = "vector"
	// FormatUnknown is an unrecognized extension.
	FormatUnknown ImageFormat = "unknown"
)

// RasterExtensions maps file extensions to whether they are bitmap formats.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// VectorExtensions maps file extensions to whether they are scalable formats.
var VectorExtensions = map[string]bool{
	".svg": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// FormatOf returns the ImageFormat for a file name or title.
func FormatOf(name string) ImageFormat {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case RasterExtensions[ext]:
		return FormatRaster
	case VectorExtensions[ext]:
		return FormatVector
	default:
		return FormatUnknown
	}
}

// IsDisplayable returns true if the file name has a format the viewer can show.
func IsDisplayable(name string) bool {
	return FormatOf(name) != FormatUnknown
}

// GetMimeType returns the MIME type for a file name or extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" && strings.HasPrefix(name, ".") {
		ext = strings.ToLower(name)
	}
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
