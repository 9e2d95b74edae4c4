package mediatypes

import (
	"strings"
	"sync"
	"time"
)

// MediaItem is one displayable thumbnail found on a page.
// Identity fields are fixed at creation; original dimensions are filled
// lazily when the page markup does not carry them.
type MediaItem struct {
	Index       int    `json:"index"`
	FileTitle   string `json:"fileTitle"`
	FilePageURL string `json:"filePageUrl,omitempty"`
	// ThumbURL is the src of the on-page thumbnail. It doubles as the
	// sample URL for guessing other rendition sizes.
	ThumbURL    string `json:"thumbUrl,omitempty"`
	ThumbWidth  int    `json:"thumbWidth,omitempty"`
	ThumbHeight int    `json:"thumbHeight,omitempty"`
	Caption     string `json:"caption,omitempty"`

	mu             sync.RWMutex
	originalWidth  int
	originalHeight int
}

// NewMediaItem creates an item with optional original dimensions (0 = unknown).
func NewMediaItem(index int, fileTitle string, originalWidth, originalHeight int) *MediaItem {
	return &MediaItem{
		Index:          index,
		FileTitle:      fileTitle,
		originalWidth:  originalWidth,
		originalHeight: originalHeight,
	}
}

// Dimensions returns the cached original width and height (0 when unknown).
func (m *MediaItem) Dimensions() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.originalWidth, m.originalHeight
}

// HasDimensions reports whether both original dimensions are known.
func (m *MediaItem) HasDimensions() bool {
	w, h := m.Dimensions()
	return w > 0 && h > 0
}

// SetDimensions caches the original dimensions.
func (m *MediaItem) SetDimensions(width, height int) {
	m.mu.Lock()
	m.originalWidth = width
	m.originalHeight = height
	m.mu.Unlock()
}

// FileName returns the file title without its namespace prefix.
func (m *MediaItem) FileName() string {
	return FileNameFromTitle(m.FileTitle)
}

// FileNameFromTitle strips a "File:" style namespace from a title.
func FileNameFromTitle(title string) string {
	if idx := strings.Index(title, ":"); idx != -1 {
		return title[idx+1:]
	}
	return title
}

// ThumbnailWidth describes the widths a rendition is displayed at.
type ThumbnailWidth struct {
	// CSS is the width in CSS pixels.
	CSS int `json:"css"`
	// CSSHeight is the matching height in CSS pixels.
	CSSHeight int `json:"cssHeight"`
	// Screen is CSS multiplied by the device pixel ratio.
	Screen int `json:"screen"`
	// Real is Screen rounded up to a width bucket; this is what gets requested.
	Real int `json:"real"`
}

// Thumbnail is a resolved rendition: a URL and its pixel size.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageHandle is the fetched bytes of a rendition.
type ImageHandle struct {
	URL         string `json:"url"`
	Data        []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`
	Format      string `json:"format,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int    `json:"size"`
}

// License describes the license of a file.
type License struct {
	ShortName    string `json:"shortName"`
	InternalName string `json:"internalName,omitempty"`
	LongName     string `json:"longName,omitempty"`
	URL          string `json:"url,omitempty"`
}

// ImageInfo is the size-independent description of a file.
type ImageInfo struct {
	Title          string    `json:"title"`
	Size           int64     `json:"size"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	MimeType       string    `json:"mimeType,omitempty"`
	URL            string    `json:"url,omitempty"`
	DescriptionURL string    `json:"descriptionUrl,omitempty"`
	Repo           string    `json:"repo"`
	LastUploader   string    `json:"lastUploader,omitempty"`
	UploadDate     time.Time `json:"uploadDate,omitempty"`
	Description    string    `json:"description,omitempty"`
	Source         string    `json:"source,omitempty"`
	Author         string    `json:"author,omitempty"`
	License        *License  `json:"license,omitempty"`
	Categories     []string  `json:"categories,omitempty"`
}

// Repo describes a file repository (the local wiki or a shared one).
type Repo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	FaviconURL  string `json:"faviconUrl,omitempty"`
	IsLocal     bool   `json:"isLocal"`
	Server      string `json:"server,omitempty"`
	ArticlePath string `json:"articlePath,omitempty"`
	APIURL      string `json:"apiUrl,omitempty"`
	DescBaseURL string `json:"descBaseUrl,omitempty"`
}

// SiteLink returns the main page URL of the repository's wiki.
func (r *Repo) SiteLink() string {
	if r == nil {
		return ""
	}
	if r.Server != "" && r.ArticlePath != "" {
		return r.Server + strings.Replace(r.ArticlePath, "$1", "", 1)
	}
	if r.DescBaseURL != "" {
		base := strings.TrimSuffix(r.DescBaseURL, "/")
		if idx := strings.LastIndex(base, "/"); idx != -1 {
			return base[:idx+1]
		}
	}
	return r.Server
}

// UsageScope tells whether a usage list covers the local wiki or all wikis.
type UsageScope string

const (
	// UsageLocal is usage on the local wiki.
	UsageLocal UsageScope = "local"
	// UsageGlobal is usage across all wikis of a farm.
	UsageGlobal UsageScope = "global"
)

// PageRef is a page that uses a file.
type PageRef struct {
	Title string `json:"title"`
	Wiki  string `json:"wiki,omitempty"`
	URL   string `json:"url,omitempty"`
}

// FileUsage lists pages that use a file.
type FileUsage struct {
	File  string     `json:"file"`
	Scope UsageScope `json:"scope"`
	Pages []PageRef  `json:"pages"`
	// Overflow is set when the API reported more results than were fetched.
	Overflow bool `json:"overflow,omitempty"`
}

// EmptyUsage is the explicit empty value used when usage is unavailable.
func EmptyUsage(file string, scope UsageScope) *FileUsage {
	return &FileUsage{File: file, Scope: scope, Pages: []PageRef{}}
}

// Gender is the grammatical gender a user selected.
type Gender string

const (
	// GenderMale is the male preference.
	GenderMale Gender = "male"
	// GenderFemale is the female preference.
	GenderFemale Gender = "female"
	// GenderUnknown is the unset preference.
	GenderUnknown Gender = "unknown"
)

// User is the uploader of a file.
type User struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
}
