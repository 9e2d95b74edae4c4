package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-lightbox/internal/mediatypes"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeImageInfo struct {
	info    *mediatypes.ImageInfo
	err     error
	release chan struct{}
	done    atomic.Bool
}

func (f *fakeImageInfo) ImageInfo(ctx context.Context, fileTitle string) (*mediatypes.ImageInfo, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	defer f.done.Store(true)
	if f.err != nil {
		return nil, f.err
	}
	if f.info == nil {
		return nil, nil
	}
	info := *f.info
	info.Title = fileTitle
	return &info, nil
}

type fakeRepoInfo struct {
	repos   map[string]*mediatypes.Repo
	err     error
	release chan struct{}
	done    atomic.Bool
}

func (f *fakeRepoInfo) RepoInfo(ctx context.Context) (map[string]*mediatypes.Repo, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	defer f.done.Store(true)
	return f.repos, f.err
}

type fakeUsage struct {
	scope mediatypes.UsageScope
	err   error
}

func (f *fakeUsage) Usage(_ context.Context, fileTitle string) (*mediatypes.FileUsage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &mediatypes.FileUsage{
		File:  fileTitle,
		Scope: f.scope,
		Pages: []mediatypes.PageRef{{Title: "Main Page"}},
	}, nil
}

type fakeUserInfo struct {
	mu       sync.Mutex
	requests []string
	repos    []string
	err      error

	// check reports whether the prerequisites resolved before the request.
	check func() bool
	early atomic.Bool
}

func (f *fakeUserInfo) UserInfo(_ context.Context, username string, repo *mediatypes.Repo) (*mediatypes.User, error) {
	if f.check != nil && !f.check() {
		f.early.Store(true)
	}
	f.mu.Lock()
	f.requests = append(f.requests, username)
	f.repos = append(f.repos, repo.Name)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &mediatypes.User{Name: username, Gender: mediatypes.GenderFemale}, nil
}

func defaultRepos() map[string]*mediatypes.Repo {
	return map[string]*mediatypes.Repo{
		"local":        {Name: "local", IsLocal: true},
		"shared":       {Name: "shared", APIURL: "https://commons.example.org/w/api.php"},
		"wikimediacom": {Name: "wikimediacom"},
	}
}

func newProviders(info *fakeImageInfo, repos *fakeRepoInfo, users *fakeUserInfo) Providers {
	return Providers{
		ImageInfo:   info,
		RepoInfo:    repos,
		LocalUsage:  &fakeUsage{scope: mediatypes.UsageLocal},
		GlobalUsage: &fakeUsage{scope: mediatypes.UsageGlobal},
		UserInfo:    users,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestFetchJoinsAllParts(t *testing.T) {
	users := &fakeUserInfo{}
	a := NewAggregator(newProviders(
		&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "shared", LastUploader: "Alice"}},
		&fakeRepoInfo{repos: defaultRepos()},
		users,
	), true)

	agg, err := a.Fetch(context.Background(), "File:Foo.jpg")
	require.NoError(t, err)

	assert.Equal(t, "File:Foo.jpg", agg.FileTitle)
	assert.Equal(t, "File:Foo.jpg", agg.ImageInfo.Title)
	assert.Equal(t, "shared", agg.Repo.Name)
	assert.Equal(t, mediatypes.UsageLocal, agg.LocalUsage.Scope)
	assert.Equal(t, mediatypes.UsageGlobal, agg.GlobalUsage.Scope)
	require.NotNil(t, agg.User)
	assert.Equal(t, "Alice", agg.User.Name)
	assert.Equal(t, []string{"shared"}, users.repos, "user looked up in the file's repo")
}

func TestNoUploaderMeansNoUserRequest(t *testing.T) {
	users := &fakeUserInfo{}
	a := NewAggregator(newProviders(
		&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "local"}},
		&fakeRepoInfo{repos: defaultRepos()},
		users,
	), true)

	agg, err := a.Fetch(context.Background(), "File:Foo.jpg")
	require.NoError(t, err)

	assert.Nil(t, agg.User)
	assert.Empty(t, users.requests)
}

func TestGenderNotNeededSkipsUserRequest(t *testing.T) {
	users := &fakeUserInfo{}
	a := NewAggregator(newProviders(
		&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "local", LastUploader: "Alice"}},
		&fakeRepoInfo{repos: defaultRepos()},
		users,
	), false)

	agg, err := a.Fetch(context.Background(), "File:Foo.jpg")
	require.NoError(t, err)

	assert.Nil(t, agg.User)
	assert.Empty(t, users.requests)
}

func TestUserRequestWaitsForInfoAndRepo(t *testing.T) {
	tests := []struct {
		name      string
		infoFirst bool
	}{
		{"image info resolves first", true},
		{"repo info resolves first", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &fakeImageInfo{
				info:    &mediatypes.ImageInfo{Repo: "local", LastUploader: "Bob"},
				release: make(chan struct{}),
			}
			repos := &fakeRepoInfo{repos: defaultRepos(), release: make(chan struct{})}
			users := &fakeUserInfo{check: func() bool { return info.done.Load() && repos.done.Load() }}

			a := NewAggregator(newProviders(info, repos, users), true)

			go func() {
				first, second := info.release, repos.release
				if !tt.infoFirst {
					first, second = second, first
				}
				close(first)
				time.Sleep(10 * time.Millisecond)
				close(second)
			}()

			agg, err := a.Fetch(context.Background(), "File:Foo.jpg")
			require.NoError(t, err)

			assert.False(t, users.early.Load(), "user info requested before prerequisites resolved")
			assert.Equal(t, []string{"Bob"}, users.requests)
			assert.Equal(t, "Bob", agg.User.Name)
		})
	}
}

func TestUnknownRepoFailsJoin(t *testing.T) {
	a := NewAggregator(newProviders(
		&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "elsewhere", LastUploader: "Alice"}},
		&fakeRepoInfo{repos: defaultRepos()},
		&fakeUserInfo{},
	), true)

	agg, err := a.Fetch(context.Background(), "File:Foo.jpg")
	assert.Nil(t, agg)
	assert.ErrorIs(t, err, ErrUnknownRepo)
}

func TestEmptyPrerequisiteFailsJoin(t *testing.T) {
	tests := []struct {
		name  string
		info  *mediatypes.ImageInfo
		repos map[string]*mediatypes.Repo
		want  error
	}{
		{"no image info", nil, defaultRepos(), ErrEmptyResponse},
		{"no repo map", &mediatypes.ImageInfo{Repo: "local", LastUploader: "Alice"}, nil, ErrUnknownRepo},
		{"nil repo entry", &mediatypes.ImageInfo{Repo: "local"}, map[string]*mediatypes.Repo{"local": nil}, ErrUnknownRepo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserInfo{}
			a := NewAggregator(newProviders(
				&fakeImageInfo{info: tt.info},
				&fakeRepoInfo{repos: tt.repos},
				users,
			), true)

			var (
				agg *Aggregate
				err error
			)
			require.NotPanics(t, func() {
				agg, err = a.Fetch(context.Background(), "File:Foo.jpg")
			})
			assert.Nil(t, agg)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, users.requests)
		})
	}
}

func TestRequiredPartFailureFailsJoin(t *testing.T) {
	boom := errors.New("server error")

	tests := []struct {
		name   string
		mutate func(*Providers)
	}{
		{"image info", func(p *Providers) { p.ImageInfo = &fakeImageInfo{err: boom} }},
		{"repo info", func(p *Providers) { p.RepoInfo = &fakeRepoInfo{err: boom} }},
		{"local usage", func(p *Providers) { p.LocalUsage = &fakeUsage{err: boom} }},
		{"global usage", func(p *Providers) { p.GlobalUsage = &fakeUsage{err: boom} }},
		{"user info", func(p *Providers) { p.UserInfo = &fakeUserInfo{err: boom} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProviders(
				&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "local", LastUploader: "Alice"}},
				&fakeRepoInfo{repos: defaultRepos()},
				&fakeUserInfo{},
			)
			tt.mutate(&p)

			agg, err := NewAggregator(p, true).Fetch(context.Background(), "File:Foo.jpg")
			assert.Nil(t, agg)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestMissingOptionalProviders(t *testing.T) {
	p := newProviders(
		&fakeImageInfo{info: &mediatypes.ImageInfo{Repo: "local", LastUploader: "Alice"}},
		&fakeRepoInfo{repos: defaultRepos()},
		nil,
	)
	p.GlobalUsage = nil
	p.UserInfo = nil

	agg, err := NewAggregator(p, true).Fetch(context.Background(), "File:Foo.jpg")
	require.NoError(t, err)

	assert.Nil(t, agg.User)
	require.NotNil(t, agg.GlobalUsage)
	assert.Empty(t, agg.GlobalUsage.Pages)
	assert.Equal(t, mediatypes.UsageGlobal, agg.GlobalUsage.Scope)
}
