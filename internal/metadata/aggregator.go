package metadata

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
)

var logger = logging.For("metadata")

// ErrUnknownRepo is returned when a file names a repository the repo map lacks.
var ErrUnknownRepo = errors.New("unknown file repository")

// ErrEmptyResponse is returned when a required provider succeeded without data.
var ErrEmptyResponse = errors.New("empty metadata response")

// ImageInfoProvider returns the description of a file.
type ImageInfoProvider interface {
	ImageInfo(ctx context.Context, fileTitle string) (*mediatypes.ImageInfo, error)
}

// RepoInfoProvider returns every known file repository keyed by name.
type RepoInfoProvider interface {
	RepoInfo(ctx context.Context) (map[string]*mediatypes.Repo, error)
}

// UsageProvider returns the pages that use a file.
type UsageProvider interface {
	Usage(ctx context.Context, fileTitle string) (*mediatypes.FileUsage, error)
}

// UserInfoProvider returns a user of the given repository.
type UserInfoProvider interface {
	UserInfo(ctx context.Context, username string, repo *mediatypes.Repo) (*mediatypes.User, error)
}

// Providers groups the data sources of an Aggregator. GlobalUsage and
// UserInfo may be nil; their parts then resolve to empty values.
type Providers struct {
	ImageInfo   ImageInfoProvider
	RepoInfo    RepoInfoProvider
	LocalUsage  UsageProvider
	GlobalUsage UsageProvider
	UserInfo    UserInfoProvider
}

// Aggregate is the joined size-independent metadata of one file.
type Aggregate struct {
	FileTitle   string                `json:"fileTitle"`
	ImageInfo   *mediatypes.ImageInfo `json:"imageInfo"`
	Repo        *mediatypes.Repo      `json:"repo"`
	LocalUsage  *mediatypes.FileUsage `json:"localUsage"`
	GlobalUsage *mediatypes.FileUsage `json:"globalUsage"`
	// User is nil unless the file has an uploader and gendered text is needed.
	User *mediatypes.User `json:"user"`
}

// Aggregator fans out the metadata requests of a file and joins them.
type Aggregator struct {
	providers  Providers
	needGender bool
}

// NewAggregator creates an aggregator. needGender controls whether uploader
// info is looked up at all.
func NewAggregator(providers Providers, needGender bool) *Aggregator {
	return &Aggregator{
		providers:  providers,
		needGender: needGender,
	}
}

// Fetch issues image-info, repo-info and both usage requests concurrently.
// User info is requested once image-info and repo-info have both resolved,
// from the repository the file reports. The first failure fails the join.
func (a *Aggregator) Fetch(ctx context.Context, fileTitle string) (*Aggregate, error) {
	g, gctx := errgroup.WithContext(ctx)

	agg := &Aggregate{FileTitle: fileTitle}

	var repos map[string]*mediatypes.Repo
	infoDone := make(chan struct{})
	repoDone := make(chan struct{})

	g.Go(func() error {
		defer close(infoDone)
		info, err := a.providers.ImageInfo.ImageInfo(gctx, fileTitle)
		if err != nil {
			return fmt.Errorf("image info for %s: %w", fileTitle, err)
		}
		if info == nil {
			return fmt.Errorf("image info for %s: %w", fileTitle, ErrEmptyResponse)
		}
		agg.ImageInfo = info
		return nil
	})

	g.Go(func() error {
		defer close(repoDone)
		r, err := a.providers.RepoInfo.RepoInfo(gctx)
		if err != nil {
			return fmt.Errorf("repo info: %w", err)
		}
		if r == nil {
			return fmt.Errorf("%w: no repositories for %s", ErrUnknownRepo, fileTitle)
		}
		repos = r
		return nil
	})

	g.Go(func() error {
		usage, err := a.usage(gctx, a.providers.LocalUsage, fileTitle, mediatypes.UsageLocal)
		if err != nil {
			return err
		}
		agg.LocalUsage = usage
		return nil
	})

	g.Go(func() error {
		usage, err := a.usage(gctx, a.providers.GlobalUsage, fileTitle, mediatypes.UsageGlobal)
		if err != nil {
			return err
		}
		agg.GlobalUsage = usage
		return nil
	})

	g.Go(func() error {
		for _, ch := range []chan struct{}{infoDone, repoDone} {
			select {
			case <-ch:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		// A failed prerequisite reports its own error.
		if agg.ImageInfo == nil || repos == nil {
			return nil
		}

		repo := repos[agg.ImageInfo.Repo]
		if repo == nil {
			return fmt.Errorf("%w: %q for %s", ErrUnknownRepo, agg.ImageInfo.Repo, fileTitle)
		}
		agg.Repo = repo

		user, err := a.user(gctx, agg.ImageInfo, repo)
		if err != nil {
			return err
		}
		agg.User = user
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if agg.Repo == nil {
		return nil, fmt.Errorf("%w: no repository for %s", ErrEmptyResponse, fileTitle)
	}

	logger.Debug("metadata joined for %s (repo=%s, user=%v)", fileTitle, agg.Repo.Name, agg.User != nil)
	return agg, nil
}

func (a *Aggregator) usage(ctx context.Context, p UsageProvider, fileTitle string, scope mediatypes.UsageScope) (*mediatypes.FileUsage, error) {
	if p == nil {
		return mediatypes.EmptyUsage(fileTitle, scope), nil
	}
	usage, err := p.Usage(ctx, fileTitle)
	if err != nil {
		return nil, fmt.Errorf("%s usage for %s: %w", scope, fileTitle, err)
	}
	if usage == nil {
		return mediatypes.EmptyUsage(fileTitle, scope), nil
	}
	return usage, nil
}

func (a *Aggregator) user(ctx context.Context, info *mediatypes.ImageInfo, repo *mediatypes.Repo) (*mediatypes.User, error) {
	if !a.needGender || info.LastUploader == "" || a.providers.UserInfo == nil {
		return nil, nil
	}
	user, err := a.providers.UserInfo.UserInfo(ctx, info.LastUploader, repo)
	if err != nil {
		return nil, fmt.Errorf("user info for %s: %w", info.LastUploader, err)
	}
	return user, nil
}
