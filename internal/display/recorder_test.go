package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metadata"
	"media-lightbox/internal/rendition"
	"media-lightbox/internal/viewer"
)

var (
	_ viewer.Sink        = (*Recorder)(nil)
	_ viewer.RouteWriter = (*Recorder)(nil)
)

func testItem(index int, title string) *mediatypes.MediaItem {
	item := mediatypes.NewMediaItem(index, title, 800, 600)
	item.ThumbURL = "https://upload.example.org/thumb/" + title
	return item
}

func TestRecorderLoadSequence(t *testing.T) {
	r := NewRecorder()
	item := testItem(2, "File:A.jpg")
	widths := mediatypes.ThumbnailWidth{CSS: 400, CSSHeight: 300, Screen: 400, Real: 640}

	r.ShowOpen()
	r.SetRoute("#mediaviewer/File:A.jpg")
	assert.True(t, r.ShowPlaceholder(item, widths))
	r.ShowProgress(item, 5)
	r.ShowRendition(item, &rendition.Resolved{
		Thumbnail: mediatypes.Thumbnail{URL: "https://upload.example.org/640px-A.jpg", Width: 640, Height: 480},
		Image:     &mediatypes.ImageHandle{URL: "https://upload.example.org/640px-A.jpg", ContentType: "image/jpeg", Format: "jpeg", Size: 1234, Data: []byte{1}},
		Guessed:   true,
	}, widths, true)
	r.ShowMetadata(item, &metadata.Aggregate{FileTitle: "File:A.jpg"})
	r.ShowControls(true, false)

	s := r.Snapshot()
	assert.True(t, s.Open)
	assert.NotEmpty(t, s.ViewID)
	assert.Equal(t, "#mediaviewer/File:A.jpg", s.Route)
	assert.Equal(t, "File:A.jpg", s.FileTitle)
	assert.Equal(t, 2, s.Index)
	assert.Equal(t, 5, s.Progress)
	require.NotNil(t, s.Placeholder)
	assert.Equal(t, item.ThumbURL, s.Placeholder.ThumbURL)
	require.NotNil(t, s.Rendition)
	assert.Equal(t, 640, s.Rendition.Thumbnail.Width)
	assert.Equal(t, "jpeg", s.Rendition.Format)
	assert.True(t, s.Rendition.Guessed)
	assert.True(t, s.Rendition.Unblurred)
	require.NotNil(t, s.Metadata)
	assert.True(t, s.HasNext)
	assert.False(t, s.HasPrev)
	assert.Equal(t, uint64(7), s.Seq)

	require.NotNil(t, r.Image())
	assert.Equal(t, 1234, r.Image().Size)
	assert.Same(t, item, r.Item())
}

func TestRecorderSwitchingItemsDropsOldState(t *testing.T) {
	r := NewRecorder()
	a, b := testItem(0, "File:A.jpg"), testItem(1, "File:B.jpg")

	r.ShowOpen()
	r.ShowMetadata(a, &metadata.Aggregate{FileTitle: a.FileTitle})
	r.ShowImageError(a, errors.New("boom"))

	r.ShowProgress(b, 0)

	s := r.Snapshot()
	assert.Equal(t, "File:B.jpg", s.FileTitle)
	assert.Nil(t, s.Metadata)
	assert.Empty(t, s.ImageError)
	assert.Nil(t, r.Image())
}

func TestRecorderErrors(t *testing.T) {
	r := NewRecorder()
	item := testItem(0, "File:A.jpg")

	r.ShowImageError(item, errors.New("no rendition"))
	r.ShowMetadataError(item, errors.New("no metadata"))

	s := r.Snapshot()
	assert.Equal(t, "no rendition", s.ImageError)
	assert.Equal(t, "no metadata", s.MetadataError)

	events := r.Events(0)
	require.Len(t, events, 2)
	assert.Equal(t, EventImageError, events[0].Kind)
	assert.Equal(t, "no rendition", events[0].Detail)
	assert.Equal(t, EventMetadataError, events[1].Kind)
}

func TestRecorderPlaceholderNeedsThumbnail(t *testing.T) {
	r := NewRecorder()
	item := mediatypes.NewMediaItem(0, "File:A.jpg", 10, 10)

	assert.False(t, r.ShowPlaceholder(item, mediatypes.ThumbnailWidth{}))
	assert.Nil(t, r.Snapshot().Placeholder)
	assert.Empty(t, r.Events(0))

	always := NewRecorder(WithPlaceholderCheck(func(*mediatypes.MediaItem) bool { return true }))
	assert.True(t, always.ShowPlaceholder(item, mediatypes.ThumbnailWidth{}))
}

func TestRecorderClose(t *testing.T) {
	r := NewRecorder()
	item := testItem(0, "File:A.jpg")

	r.ShowOpen()
	firstView := r.Snapshot().ViewID
	r.SetRoute("#mediaviewer/File:A.jpg")
	r.ShowProgress(item, 50)
	r.SetRoute("")
	r.ShowClose()

	s := r.Snapshot()
	assert.False(t, s.Open)
	assert.Empty(t, s.ViewID)
	assert.Empty(t, s.Route)
	assert.Equal(t, -1, s.Index)
	assert.Nil(t, r.Item())

	r.ShowOpen()
	assert.NotEqual(t, firstView, r.Snapshot().ViewID)
}

func TestRecorderEventRing(t *testing.T) {
	r := NewRecorder(WithEventCapacity(3))
	item := testItem(0, "File:A.jpg")

	for p := 10; p <= 50; p += 10 {
		r.ShowProgress(item, p)
	}

	events := r.Events(0)
	require.Len(t, events, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.Equal(t, "50", events[2].Detail)

	assert.Len(t, r.Events(4), 1)
	assert.Empty(t, r.Events(5))
}

func TestRecorderChanged(t *testing.T) {
	r := NewRecorder()
	changed := r.Changed()

	select {
	case <-changed:
		t.Fatal("changed before any event")
	default:
	}

	r.ShowControls(false, false)

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("Changed() channel not closed after an event")
	}
	assert.NotEqual(t, changed, r.Changed())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	item := testItem(0, "File:A.jpg")
	r.ShowPlaceholder(item, mediatypes.ThumbnailWidth{CSS: 1})

	s := r.Snapshot()
	s.Placeholder.Widths.CSS = 99

	assert.Equal(t, 1, r.Snapshot().Placeholder.Widths.CSS)
}
