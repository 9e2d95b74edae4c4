package page

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><body>
<a href="/wiki/Main_Page"><img src="/static/logo.png" width="100" height="100"></a>
<figure class="mw-default-size">
  <a href="/wiki/File:Cat_on_a_mat.jpg" class="mw-file-description">
    <img src="//upload.example.org/wikipedia/commons/thumb/a/ab/Cat_on_a_mat.jpg/220px-Cat_on_a_mat.jpg"
         width="220" height="165" data-file-width="4000" data-file-height="3000">
  </a>
  <figcaption>A <b>cat</b>   sitting</figcaption>
</figure>
<div class="thumb tright"><div class="thumbinner">
  <a href="/w/index.php?title=File:Diagram.svg" class="image"><img src="/thumb/Diagram.svg/200px-Diagram.svg.png" width="200" height="100"></a>
  <div class="thumbcaption"><div class="magnify"><a href="/wiki/File:Diagram.svg">enlarge</a></div>Process diagram</div>
</div></div>
<div class="noviewer"><a href="/wiki/File:Hidden.jpg"><img src="/hidden.jpg"></a></div>
<a href="/wiki/File:Clip.ogv"><img src="/clip.jpg"></a>
<a href="/wiki/File:Icon-star.png"><img src="/icon.png"></a>
<ul class="gallery"><li class="gallerybox">
  <a href="/wiki/Image:Dog%20park.png"><img src="/dog.png" width="120" height="80"></a>
  <div class="gallerytext">Dogs</div>
</li></ul>
</body></html>`

func TestScan(t *testing.T) {
	s, err := NewScanner([]string{"Icon-*"})
	require.NoError(t, err)

	items, err := s.Scan(strings.NewReader(articleHTML), "https://en.example.org/wiki/Cats")
	require.NoError(t, err)
	require.Len(t, items, 3)

	cat := items[0]
	assert.Equal(t, 0, cat.Index)
	assert.Equal(t, "File:Cat on a mat.jpg", cat.FileTitle)
	assert.Equal(t, "https://en.example.org/wiki/File:Cat_on_a_mat.jpg", cat.FilePageURL)
	assert.Equal(t, "https://upload.example.org/wikipedia/commons/thumb/a/ab/Cat_on_a_mat.jpg/220px-Cat_on_a_mat.jpg", cat.ThumbURL)
	assert.Equal(t, 220, cat.ThumbWidth)
	assert.Equal(t, 165, cat.ThumbHeight)
	w, h := cat.Dimensions()
	assert.Equal(t, 4000, w)
	assert.Equal(t, 3000, h)
	assert.Equal(t, "A cat sitting", cat.Caption)

	diagram := items[1]
	assert.Equal(t, 1, diagram.Index)
	assert.Equal(t, "File:Diagram.svg", diagram.FileTitle)
	assert.False(t, diagram.HasDimensions())
	assert.Equal(t, "Process diagram", diagram.Caption)

	dog := items[2]
	assert.Equal(t, 2, dog.Index)
	assert.Equal(t, "File:Dog park.png", dog.FileTitle)
	assert.Equal(t, "Dogs", dog.Caption)
}

func TestScanWithoutBaseURL(t *testing.T) {
	s, err := NewScanner(nil)
	require.NoError(t, err)

	items, err := s.Scan(strings.NewReader(articleHTML), "")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, "/wiki/File:Cat_on_a_mat.jpg", items[0].FilePageURL)
	assert.True(t, strings.HasPrefix(items[0].ThumbURL, "https://upload.example.org/"))
}

func TestScanEmptyDocument(t *testing.T) {
	s, err := NewScanner(nil)
	require.NoError(t, err)

	items, err := s.Scan(strings.NewReader("<p>no images here</p>"), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFileTitle(t *testing.T) {
	s, err := NewScanner(nil)
	require.NoError(t, err)

	tests := []struct {
		href   string
		want   string
		wantOK bool
	}{
		{"https://x.org/wiki/File:A_b.jpg", "File:A b.jpg", true},
		{"https://x.org/wiki/file:lower.jpg", "File:lower.jpg", true},
		{"https://x.org/w/index.php?title=Image:Old.png&action=view", "File:Old.png", true},
		{"https://x.org/wiki/File:Caf%C3%A9.jpg", "File:Café.jpg", true},
		{"https://x.org/wiki/Talk:Cats", "", false},
		{"https://x.org/wiki/File:", "", false},
		{"https://x.org/wiki/Cats", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := s.fileTitle(tt.href)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewScannerInvalidPattern(t *testing.T) {
	_, err := NewScanner([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestIgnorePatterns(t *testing.T) {
	s, err := NewScanner([]string{" *.gif ", "", "Flag_of_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.gif", "Flag_of_*"}, s.IgnorePatterns())

	assert.True(t, s.ignored("Spinner.gif"))
	assert.True(t, s.ignored("Flag of France.png"))
	assert.False(t, s.ignored("France.png"))
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/Cats" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	s, err := NewScanner(nil)
	require.NoError(t, err)

	items, err := s.LoadURL(t.Context(), srv.Client(), srv.URL+"/wiki/Cats")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, srv.URL+"/wiki/File:Cat_on_a_mat.jpg", items[0].FilePageURL)

	_, err = s.LoadURL(t.Context(), srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(articleHTML), 0o600))

	s, err := NewScanner([]string{"Icon-*"})
	require.NoError(t, err)

	items, err := s.LoadFile(path, "https://en.example.org/wiki/Cats")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = s.LoadFile(filepath.Join(t.TempDir(), "missing.html"), "")
	assert.Error(t, err)
}
