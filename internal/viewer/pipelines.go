package viewer

import (
	"time"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metrics"
)

// startRenditionLocked resolves the rendition for item in the background.
// An initial load reports progress and counts as an image view. A resize of
// an image already on screen only swaps it.
func (o *Orchestrator) startRenditionLocked(tok loadToken, item *mediatypes.MediaItem, widths mediatypes.ThumbnailWidth, start time.Time, initial bool) {
	req := renditionRequest(item, widths)
	ctx := o.ctx

	var progress func(float64)
	if initial {
		progress = func(fraction float64) {
			o.onProgress(tok, item, fraction)
		}
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		resolved, err := o.deps.Renditions.Resolve(ctx, req, progress)

		o.mu.Lock()
		defer o.mu.Unlock()

		if !o.isRenditionCurrent(tok) {
			metrics.ViewerStaleResultsDiscarded.WithLabelValues("rendition").Inc()
			return
		}

		if err != nil {
			logger.Warn("rendition for %s failed: %v", item.FileTitle, err)
			metrics.ViewerPipelineErrors.WithLabelValues("rendition").Inc()
			if initial {
				o.deps.Sink.ShowProgress(item, 0)
			}
			o.deps.Sink.ShowImageError(item, err)
			return
		}

		if !initial {
			o.realShown = true
			o.deps.Sink.ShowRendition(item, resolved, widths, false)
			return
		}

		o.deps.Sink.ShowProgress(item, 100)

		if o.firstImagePending {
			o.firstImagePending = false
			metrics.ClickToFirstImage.Observe(time.Since(o.openedAt).Seconds())
		}

		o.realShown = true
		unblur := o.placeholderShown && time.Since(start) > o.cfg.CacheHitThreshold
		o.deps.Sink.ShowRendition(item, resolved, widths, unblur)
		o.showControlsLocked()
		o.deps.Actions.Log(logging.ActionImageView)
	}()
}

func (o *Orchestrator) onProgress(tok loadToken, item *mediatypes.MediaItem, fraction float64) {
	percent := int(fraction * 100)

	o.mu.Lock()
	defer o.mu.Unlock()

	// 0 and 5 are reported by the load itself, 100 by completion.
	if percent <= 5 || percent >= 100 || !o.isRenditionCurrent(tok) {
		return
	}
	o.deps.Sink.ShowProgress(item, percent)
}

// startMetadataLocked joins the metadata for item in the background.
func (o *Orchestrator) startMetadataLocked(tok loadToken, item *mediatypes.MediaItem) {
	ctx := o.ctx

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		aggregate, err := o.deps.Metadata.Fetch(ctx, item.FileTitle)

		o.mu.Lock()
		defer o.mu.Unlock()

		if !o.isCurrent(tok) {
			metrics.ViewerStaleResultsDiscarded.WithLabelValues("metadata").Inc()
			return
		}

		if err != nil {
			logger.Warn("metadata for %s failed: %v", item.FileTitle, err)
			metrics.ViewerPipelineErrors.WithLabelValues("metadata").Inc()
			o.deps.Sink.ShowMetadataError(item, err)
			return
		}

		if o.firstMetaPending {
			o.firstMetaPending = false
			metrics.ClickToFirstMetadata.Observe(time.Since(o.openedAt).Seconds())
		}
		o.deps.Sink.ShowMetadata(item, aggregate)
	}()
}

// showPlaceholderLocked shows the blurred thumbnail unless the real image is
// already up. Items without original dimensions get them looked up first, at
// most retries times. Running out of retries breaks an invariant of the
// dimension provider; it is reported and the load continues without a
// placeholder.
func (o *Orchestrator) showPlaceholderLocked(tok loadToken, item *mediatypes.MediaItem, widths mediatypes.ThumbnailWidth, retries int) {
	if o.realShown {
		return
	}

	if item.HasDimensions() {
		o.placeholderShown = o.deps.Sink.ShowPlaceholder(item, widths)
		return
	}

	if o.deps.Dimensions == nil {
		logger.Debug("no dimensions for %s, skipping placeholder", item.FileTitle)
		return
	}
	if retries <= 0 {
		logger.Error("dimension lookup for %s returned no size, skipping placeholder", item.FileTitle)
		metrics.ViewerPipelineErrors.WithLabelValues("placeholder").Inc()
		return
	}

	ctx := o.ctx
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		info, err := o.deps.Dimensions.ImageInfo(ctx, item.FileTitle)

		o.mu.Lock()
		defer o.mu.Unlock()

		if !o.isCurrent(tok) {
			metrics.ViewerStaleResultsDiscarded.WithLabelValues("placeholder").Inc()
			return
		}
		if err != nil {
			logger.Debug("dimension lookup for %s failed: %v", item.FileTitle, err)
			return
		}
		if info.Width > 0 && info.Height > 0 {
			item.SetDimensions(info.Width, info.Height)
		}
		o.showPlaceholderLocked(tok, item, widths, retries-1)
	}()
}
