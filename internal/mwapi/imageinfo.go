package mwapi

import (
	"context"
	"net/url"
	"strings"
	"time"

	"media-lightbox/internal/mediatypes"
)

var extMetadataFields = []string{
	"DateTime", "DateTimeOriginal", "ObjectName", "ImageDescription",
	"License", "LicenseShortName", "UsageTerms", "LicenseUrl",
	"Credit", "Artist", "AuthorCount", "Permission", "Attribution",
	"AttributionRequired", "NonFree", "Restrictions", "Categories",
}

// ImageInfo fetches the size-independent description of a file.
type ImageInfo struct {
	client   *Client
	language string
}

// NewImageInfo creates the provider. language selects the language of
// translated metadata fields.
func NewImageInfo(client *Client, language string) *ImageInfo {
	return &ImageInfo{client: client, language: language}
}

// ImageInfo returns the description of fileTitle.
func (p *ImageInfo) ImageInfo(ctx context.Context, fileTitle string) (*mediatypes.ImageInfo, error) {
	params := url.Values{
		"action":              {"query"},
		"prop":                {"imageinfo"},
		"titles":              {fileTitle},
		"iiprop":              {"timestamp|user|url|size|mime|mediatype|extmetadata"},
		"iiextmetadatafilter": {strings.Join(extMetadataFields, "|")},
	}
	if p.language != "" {
		params.Set("iiextmetadatalanguage", p.language)
	}

	var resp queryResponse
	if err := p.client.Get(ctx, "imageinfo", params, &resp); err != nil {
		return nil, err
	}

	page, err := resp.firstPage("imageinfo")
	if err != nil {
		return nil, err
	}
	if len(page.ImageInfo) == 0 {
		return nil, badResponse("imageinfo", "no imageinfo for "+fileTitle)
	}

	return newImageInfo(page, &page.ImageInfo[0]), nil
}

func newImageInfo(page *pageEntry, ii *imageInfoEntry) *mediatypes.ImageInfo {
	meta := func(name string) string {
		return ii.ExtMetadata[name].String()
	}

	info := &mediatypes.ImageInfo{
		Title:          page.Title,
		Size:           ii.Size,
		Width:          ii.Width,
		Height:         ii.Height,
		MimeType:       ii.Mime,
		URL:            ii.URL,
		DescriptionURL: ii.DescriptionURL,
		Repo:           page.ImageRepository,
		LastUploader:   ii.User,
		Description:    meta("ImageDescription"),
		Source:         meta("Credit"),
		Author:         meta("Artist"),
	}

	if ts, err := time.Parse(time.RFC3339, ii.Timestamp); err == nil {
		info.UploadDate = ts
	}

	if short := meta("LicenseShortName"); short != "" {
		info.License = &mediatypes.License{
			ShortName:    short,
			InternalName: meta("License"),
			LongName:     meta("UsageTerms"),
			URL:          meta("LicenseUrl"),
		}
	}

	if cats := meta("Categories"); cats != "" {
		info.Categories = strings.Split(cats, "|")
	}

	return info
}
