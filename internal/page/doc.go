// Package page discovers file thumbnails in HTML documents.
//
// A thumbnail is an <img> inside a link to a file description page
// ("/wiki/File:Foo.jpg" or "index.php?title=File:Foo.jpg"). Each
// displayable thumbnail becomes one [mediatypes.MediaItem], indexed in
// document order. The original size is taken from the data-file-width and
// data-file-height attributes when present, and the caption from the
// enclosing figure, thumb frame or gallery box.
//
// Thumbnails are skipped when they sit inside an element with the
// "noviewer" class, when the file type cannot be displayed, or when the
// file name matches one of the ignore patterns:
//
//	scanner, err := page.NewScanner([]string{"*.ogv", "Icon-*"})
//	items, err := scanner.Scan(r, "https://en.wikipedia.org/wiki/Cat")
package page
