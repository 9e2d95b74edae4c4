package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"media-lightbox/internal/filesystem"
	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
)

var logger = logging.For("page")

// DefaultNamespaces are the title prefixes of file pages.
var DefaultNamespaces = []string{"File", "Image"}

// maxDocumentBytes caps documents loaded over HTTP.
const maxDocumentBytes = 20 << 20

// Scanner finds thumbnails in documents.
type Scanner struct {
	ignore     []glob.Glob
	patterns   []string
	namespaces []string
}

// NewScanner compiles the ignore patterns. Patterns are matched against
// the file name without namespace, with spaces as underscores.
func NewScanner(ignorePatterns []string) (*Scanner, error) {
	s := &Scanner{namespaces: DefaultNamespaces}
	for _, p := range ignorePatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		s.ignore = append(s.ignore, g)
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// IgnorePatterns returns the compiled ignore patterns.
func (s *Scanner) IgnorePatterns() []string {
	return append([]string(nil), s.patterns...)
}

// LoadURL downloads the document at pageURL and scans it.
func (s *Scanner) LoadURL(ctx context.Context, hc *http.Client, pageURL string) ([]*mediatypes.MediaItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load page %s: HTTP %d", pageURL, resp.StatusCode)
	}
	return s.Scan(io.LimitReader(resp.Body, maxDocumentBytes), pageURL)
}

// LoadFile scans the document at path. baseURL resolves relative links.
func (s *Scanner) LoadFile(path, baseURL string) ([]*mediatypes.MediaItem, error) {
	f, err := filesystem.Open(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Scan(f, baseURL)
}

// Scan parses the document in r and returns its thumbnails in document order.
func (s *Scanner) Scan(r io.Reader, baseURL string) ([]*mediatypes.MediaItem, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		if base, err = url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
	}

	var items []*mediatypes.MediaItem
	skipped := 0

	var walk func(n *html.Node, noViewer bool)
	walk = func(n *html.Node, noViewer bool) {
		if n.Type == html.ElementNode {
			noViewer = noViewer || hasClass(n, "noviewer")
			if n.DataAtom == atom.A && !noViewer {
				if item, ok := s.thumbnail(n, base); ok {
					item.Index = len(items)
					items = append(items, item)
					return
				}
				if findImage(n) != nil {
					skipped++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, noViewer)
		}
	}
	walk(doc, false)

	logger.Debug("found %d thumbnails (%d skipped)", len(items), skipped)
	return items, nil
}

// thumbnail builds an item from a link, if it is a file link around an image.
func (s *Scanner) thumbnail(link *html.Node, base *url.URL) (*mediatypes.MediaItem, bool) {
	img := findImage(link)
	if img == nil {
		return nil, false
	}

	href := resolve(base, attr(link, "href"))
	title, ok := s.fileTitle(href)
	if !ok {
		return nil, false
	}
	name := mediatypes.FileNameFromTitle(title)
	if !mediatypes.IsDisplayable(name) || s.ignored(name) {
		return nil, false
	}

	item := mediatypes.NewMediaItem(0, title, atoi(attr(img, "data-file-width")), atoi(attr(img, "data-file-height")))
	item.FilePageURL = href
	item.ThumbURL = resolve(base, attr(img, "src"))
	item.ThumbWidth = atoi(attr(img, "width"))
	item.ThumbHeight = atoi(attr(img, "height"))
	item.Caption = caption(link)
	return item, true
}

// fileTitle extracts the file title from a link, with spaces for underscores.
func (s *Scanner) fileTitle(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	candidate := u.Query().Get("title")
	if candidate == "" {
		segment := u.EscapedPath()
		if idx := strings.LastIndex(segment, "/"); idx != -1 {
			segment = segment[idx+1:]
		}
		if candidate, err = url.PathUnescape(segment); err != nil {
			return "", false
		}
	}
	candidate = strings.ReplaceAll(candidate, "_", " ")

	ns, name, found := strings.Cut(candidate, ":")
	if !found || strings.TrimSpace(name) == "" {
		return "", false
	}
	for _, known := range s.namespaces {
		if strings.EqualFold(ns, known) {
			return "File:" + name, true
		}
	}
	return "", false
}

func (s *Scanner) ignored(name string) bool {
	name = strings.ReplaceAll(name, " ", "_")
	for _, g := range s.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func findImage(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Img {
			return c
		}
		if found := findImage(c); found != nil {
			return found
		}
	}
	return nil
}

// caption returns the text of the caption that belongs to the thumbnail
// link, looking through the enclosing figure, thumb frame or gallery box.
func caption(link *html.Node) string {
	for p := link.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch {
		case p.DataAtom == atom.Figure:
			return textOf(findElement(p, func(n *html.Node) bool { return n.DataAtom == atom.Figcaption }))
		case hasClass(p, "thumbinner"), hasClass(p, "thumb"):
			return textOf(findElement(p, func(n *html.Node) bool { return hasClass(n, "thumbcaption") }))
		case hasClass(p, "gallerybox"):
			return textOf(findElement(p, func(n *html.Node) bool { return hasClass(n, "gallerytext") }))
		case p.DataAtom == atom.Body:
			return ""
		}
	}
	return ""
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		// The magnify link of a thumb frame carries no caption text.
		if n.Type == html.ElementNode && hasClass(n, "magnify") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if base == nil {
		if strings.HasPrefix(ref, "//") {
			return "https:" + ref
		}
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
