package mwapi

import (
	"context"
	"net/url"
	"strconv"

	"media-lightbox/internal/mediatypes"
)

// DefaultUsageLimit is how many using pages are requested.
const DefaultUsageLimit = 100

// ImageUsage lists the local pages that use a file.
type ImageUsage struct {
	client *Client
	limit  int
}

// NewImageUsage creates the provider. A non-positive limit uses DefaultUsageLimit.
func NewImageUsage(client *Client, limit int) *ImageUsage {
	if limit <= 0 {
		limit = DefaultUsageLimit
	}
	return &ImageUsage{client: client, limit: limit}
}

// Usage returns the pages of the main namespace that use fileTitle.
func (p *ImageUsage) Usage(ctx context.Context, fileTitle string) (*mediatypes.FileUsage, error) {
	params := url.Values{
		"action":      {"query"},
		"list":        {"imageusage"},
		"iutitle":     {fileTitle},
		"iunamespace": {"0"},
		"iulimit":     {strconv.Itoa(p.limit)},
	}

	var resp queryResponse
	if err := p.client.Get(ctx, "imageusage", params, &resp); err != nil {
		return nil, err
	}

	usage := mediatypes.EmptyUsage(fileTitle, mediatypes.UsageLocal)
	for _, ref := range resp.Query.ImageUsage {
		usage.Pages = append(usage.Pages, mediatypes.PageRef{Title: ref.Title})
	}
	usage.Overflow = len(resp.Continue) > 0
	return usage, nil
}

// GlobalUsage lists the pages on other wikis that use a file. When the
// wiki has no global usage support it answers with empty usage and makes
// no request.
type GlobalUsage struct {
	client  *Client
	limit   int
	enabled bool
}

// NewGlobalUsage creates the provider.
func NewGlobalUsage(client *Client, limit int, enabled bool) *GlobalUsage {
	if limit <= 0 {
		limit = DefaultUsageLimit
	}
	return &GlobalUsage{client: client, limit: limit, enabled: enabled}
}

// Usage returns the pages on other wikis that use fileTitle.
func (p *GlobalUsage) Usage(ctx context.Context, fileTitle string) (*mediatypes.FileUsage, error) {
	if !p.enabled {
		return mediatypes.EmptyUsage(fileTitle, mediatypes.UsageGlobal), nil
	}

	params := url.Values{
		"action":        {"query"},
		"prop":          {"globalusage"},
		"titles":        {fileTitle},
		"guprop":        {"url"},
		"gufilterlocal": {"1"},
		"gulimit":       {strconv.Itoa(p.limit)},
	}

	var resp queryResponse
	if err := p.client.Get(ctx, "globalusage", params, &resp); err != nil {
		return nil, err
	}

	page, err := resp.firstPage("globalusage")
	if err != nil {
		return nil, err
	}

	usage := mediatypes.EmptyUsage(fileTitle, mediatypes.UsageGlobal)
	for _, g := range page.GlobalUsage {
		usage.Pages = append(usage.Pages, mediatypes.PageRef{Title: g.Title, Wiki: g.Wiki, URL: g.URL})
	}
	usage.Overflow = len(resp.Continue) > 0
	return usage, nil
}
