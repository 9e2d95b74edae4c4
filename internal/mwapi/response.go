package mwapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Response shapes for formatversion=2.

type queryResponse struct {
	Continue map[string]any `json:"continue,omitempty"`
	Query    struct {
		Pages      []pageEntry      `json:"pages"`
		Repos      []repoEntry      `json:"repos"`
		ImageUsage []imageUsageRef  `json:"imageusage"`
		Users      []userEntry      `json:"users"`
		Normalized []normalizedPair `json:"normalized"`
	} `json:"query"`
}

type normalizedPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type pageEntry struct {
	Title           string             `json:"title"`
	Missing         bool               `json:"missing"`
	Invalid         bool               `json:"invalid"`
	ImageRepository string             `json:"imagerepository"`
	ImageInfo       []imageInfoEntry   `json:"imageinfo"`
	GlobalUsage     []globalUsageEntry `json:"globalusage"`
}

type imageInfoEntry struct {
	Timestamp      string                `json:"timestamp"`
	User           string                `json:"user"`
	Size           int64                 `json:"size"`
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
	URL            string                `json:"url"`
	DescriptionURL string                `json:"descriptionurl"`
	Mime           string                `json:"mime"`
	ThumbURL       string                `json:"thumburl"`
	ThumbWidth     int                   `json:"thumbwidth"`
	ThumbHeight    int                   `json:"thumbheight"`
	ExtMetadata    map[string]extMetaVal `json:"extmetadata"`
}

// extMetaVal is one extmetadata field. Values are usually strings but some
// fields come back as numbers.
type extMetaVal struct {
	Value json.RawMessage `json:"value"`
}

func (v extMetaVal) String() string {
	if len(v.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v.Value, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(v.Value, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

type repoEntry struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayname"`
	Favicon      string `json:"favicon"`
	Local        bool   `json:"local"`
	Server       string `json:"server"`
	ArticlePath  string `json:"articlepath"`
	ScriptDirURL string `json:"scriptDirUrl"`
	DescBaseURL  string `json:"descBaseUrl"`
}

type imageUsageRef struct {
	Title string `json:"title"`
}

type globalUsageEntry struct {
	Title string `json:"title"`
	Wiki  string `json:"wiki"`
	URL   string `json:"url"`
}

type userEntry struct {
	Name    string `json:"name"`
	Missing bool   `json:"missing"`
	Gender  string `json:"gender"`
}

// firstPage returns the only page of a titles= query.
func (r *queryResponse) firstPage(module string) (*pageEntry, error) {
	if len(r.Query.Pages) == 0 {
		return nil, badResponse(module, "no pages")
	}
	p := &r.Query.Pages[0]
	if p.Missing && len(p.ImageInfo) == 0 {
		return nil, ErrMissing
	}
	if p.Invalid {
		return nil, ErrMissing
	}
	return p, nil
}

func badResponse(module, what string) error {
	return fmt.Errorf("%w from %s: %s", ErrBadResponse, module, what)
}
