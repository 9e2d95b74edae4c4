package mwapi

import (
	"context"
	"net/url"
	"strconv"

	"media-lightbox/internal/mediatypes"
)

// ThumbnailInfo asks the API for the rendition URL of a file at a width.
type ThumbnailInfo struct {
	client *Client
}

// NewThumbnailInfo creates the provider.
func NewThumbnailInfo(client *Client) *ThumbnailInfo {
	return &ThumbnailInfo{client: client}
}

// ThumbnailInfo returns the rendition of fileTitle at width.
func (p *ThumbnailInfo) ThumbnailInfo(ctx context.Context, fileTitle string, width int) (*mediatypes.Thumbnail, error) {
	params := url.Values{
		"action":     {"query"},
		"prop":       {"imageinfo"},
		"titles":     {fileTitle},
		"iiprop":     {"url"},
		"iiurlwidth": {strconv.Itoa(width)},
	}

	var resp queryResponse
	if err := p.client.Get(ctx, "thumbnailinfo", params, &resp); err != nil {
		return nil, err
	}

	page, err := resp.firstPage("thumbnailinfo")
	if err != nil {
		return nil, err
	}
	if len(page.ImageInfo) == 0 || page.ImageInfo[0].ThumbURL == "" {
		return nil, badResponse("thumbnailinfo", "no thumbnail URL for "+fileTitle)
	}

	ii := page.ImageInfo[0]
	return &mediatypes.Thumbnail{URL: ii.ThumbURL, Width: ii.ThumbWidth, Height: ii.ThumbHeight}, nil
}
