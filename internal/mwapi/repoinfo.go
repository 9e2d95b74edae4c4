package mwapi

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"media-lightbox/internal/mediatypes"
)

// FileRepoInfo fetches the file repositories known to the wiki. The list
// rarely changes, so the first successful answer is kept in memory.
type FileRepoInfo struct {
	client *Client

	mu    sync.Mutex
	repos map[string]*mediatypes.Repo
}

// NewFileRepoInfo creates the provider.
func NewFileRepoInfo(client *Client) *FileRepoInfo {
	return &FileRepoInfo{client: client}
}

// RepoInfo returns the repositories keyed by name.
func (p *FileRepoInfo) RepoInfo(ctx context.Context) (map[string]*mediatypes.Repo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.repos != nil {
		return p.repos, nil
	}

	params := url.Values{
		"action": {"query"},
		"meta":   {"filerepoinfo"},
	}

	var resp queryResponse
	if err := p.client.Get(ctx, "filerepoinfo", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Query.Repos) == 0 {
		return nil, badResponse("filerepoinfo", "no repos")
	}

	repos := make(map[string]*mediatypes.Repo, len(resp.Query.Repos))
	for _, r := range resp.Query.Repos {
		repo := &mediatypes.Repo{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			FaviconURL:  r.Favicon,
			IsLocal:     r.Local,
			Server:      r.Server,
			ArticlePath: r.ArticlePath,
			DescBaseURL: r.DescBaseURL,
		}
		if !r.Local && r.ScriptDirURL != "" {
			repo.APIURL = strings.TrimSuffix(r.ScriptDirURL, "/") + "/api.php"
		}
		repos[r.Name] = repo
	}

	p.repos = repos
	return repos, nil
}
