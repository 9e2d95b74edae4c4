package embed

import (
	"fmt"
	"math"
	"path"
	"strings"

	"golang.org/x/net/html"

	"media-lightbox/internal/mediatypes"
)

// FileInfo is what an embed snippet is built from.
type FileInfo struct {
	ImageInfo *mediatypes.ImageInfo
	Repo      *mediatypes.Repo
	// Caption overrides the file name in wikitext.
	Caption string
}

// Size is one offered embed size.
type Size struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Snippets are the ready-to-copy embed codes of a file.
type Snippets struct {
	ThumbURL string `json:"thumbUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	HTML     string `json:"html"`
	Wikitext string `json:"wikitext"`
	Sizes    []Size `json:"sizes"`
}

// presetWidths are the offered sizes, smallest first.
var presetWidths = []Size{
	{Name: "small", Width: 300},
	{Name: "medium", Width: 640},
	{Name: "large", Width: 1200},
}

// Formatter builds embed snippets.
type Formatter struct{}

// NewFormatter creates a formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Byline joins author and source HTML. Both are trusted HTML from the file
// description. It returns "" when both are empty.
func (f *Formatter) Byline(author, source string) string {
	switch {
	case author != "" && source != "":
		return fmt.Sprintf("By %s, from %s", author, source)
	case author != "":
		return "By " + author
	case source != "":
		return "From " + source
	}
	return ""
}

// SiteLink links to the main page of the file's repository.
func (f *Formatter) SiteLink(info FileInfo) string {
	if info.Repo == nil {
		return ""
	}
	name := info.Repo.DisplayName
	if name == "" {
		name = info.Repo.Name
	}
	link := info.Repo.SiteLink()
	if link == "" {
		return html.EscapeString(name)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(name))
}

// ThumbnailHTML is an image linked to its file page, followed by the
// attribution: title, byline, license and site.
func (f *Formatter) ThumbnailHTML(info FileInfo, thumbURL string, width, height int) string {
	ii := info.ImageInfo
	if ii == nil {
		ii = &mediatypes.ImageInfo{}
	}
	title := html.EscapeString(NameText(ii.Title))

	var b strings.Builder
	b.WriteString("<p>")
	fmt.Fprintf(&b, `<a href="%s"><img src="%s" alt="%s" width="%d" height="%d"></a>`,
		html.EscapeString(ii.DescriptionURL), html.EscapeString(thumbURL), title, width, height)
	b.WriteString("<br>")

	fmt.Fprintf(&b, `"<a href="%s">%s</a>"`, html.EscapeString(ii.DescriptionURL), title)
	if byline := f.Byline(ii.Author, ii.Source); byline != "" {
		b.WriteString(" ")
		b.WriteString(lowerFirst(byline))
	}
	b.WriteString(".")

	if lic := ii.License; lic != nil && lic.ShortName != "" {
		name := html.EscapeString(lic.ShortName)
		if lic.URL != "" {
			fmt.Fprintf(&b, ` Licensed under <a href="%s" title="%s">%s</a>`,
				html.EscapeString(lic.URL), html.EscapeString(lic.LongName), name)
		} else {
			fmt.Fprintf(&b, " Licensed under %s", name)
		}
		if site := f.SiteLink(info); site != "" {
			b.WriteString(" via ")
			b.WriteString(site)
		}
		b.WriteString(".")
	} else if site := f.SiteLink(info); site != "" {
		b.WriteString(" Via ")
		b.WriteString(site)
		b.WriteString(".")
	}

	b.WriteString("</p>")
	return b.String()
}

// ThumbnailWikitext is a thumb link to the file. width 0 leaves the size to
// the reader's preferences; the caption defaults to the file name.
func (f *Formatter) ThumbnailWikitext(info FileInfo, width int) string {
	title := ""
	if info.ImageInfo != nil {
		title = info.ImageInfo.Title
	}
	caption := info.Caption
	if caption == "" {
		caption = NameText(title)
	}

	parts := []string{title}
	if width > 0 {
		parts = append(parts, fmt.Sprintf("%dpx", width))
	}
	parts = append(parts, "thumb", caption)
	return "[[" + strings.Join(parts, "|") + "]]"
}

// Snippets builds both snippets for the rendition thumb.
func (f *Formatter) Snippets(info FileInfo, thumb mediatypes.Thumbnail) *Snippets {
	var ow, oh int
	if info.ImageInfo != nil {
		ow, oh = info.ImageInfo.Width, info.ImageInfo.Height
	}
	return &Snippets{
		ThumbURL: thumb.URL,
		Width:    thumb.Width,
		Height:   thumb.Height,
		HTML:     f.ThumbnailHTML(info, thumb.URL, thumb.Width, thumb.Height),
		Wikitext: f.ThumbnailWikitext(info, thumb.Width),
		Sizes:    Sizes(ow, oh),
	}
}

// Sizes returns the preset sizes that fit the original, plus the original
// size itself. Unknown dimensions return the presets with zero heights.
func Sizes(originalWidth, originalHeight int) []Size {
	var sizes []Size
	for _, p := range presetWidths {
		if originalWidth > 0 && p.Width >= originalWidth {
			break
		}
		s := p
		if originalWidth > 0 && originalHeight > 0 {
			s.Height = int(math.Round(float64(p.Width) * float64(originalHeight) / float64(originalWidth)))
		}
		sizes = append(sizes, s)
	}
	if originalWidth > 0 && originalHeight > 0 {
		sizes = append(sizes, Size{Name: "original", Width: originalWidth, Height: originalHeight})
	}
	return sizes
}

// NameText is a file title without namespace and extension.
func NameText(title string) string {
	name := mediatypes.FileNameFromTitle(title)
	return strings.TrimSuffix(name, path.Ext(name))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
