package mwapi

import (
	"context"
	"net/url"

	"media-lightbox/internal/mediatypes"
)

// UserInfo looks up the gender of a user on the wiki hosting the file.
type UserInfo struct {
	client *Client
	useAPI bool
}

// NewUserInfo creates the provider. Without useAPI every user has an
// unknown gender and no request is made.
func NewUserInfo(client *Client, useAPI bool) *UserInfo {
	return &UserInfo{client: client, useAPI: useAPI}
}

// UserInfo returns the user called username. Users of foreign repositories
// are looked up through the repository's own API.
func (p *UserInfo) UserInfo(ctx context.Context, username string, repo *mediatypes.Repo) (*mediatypes.User, error) {
	user := &mediatypes.User{Name: username, Gender: mediatypes.GenderUnknown}
	if !p.useAPI {
		return user, nil
	}

	client := p.client
	if repo != nil && !repo.IsLocal {
		client = client.ForEndpoint(repo.APIURL)
	}

	params := url.Values{
		"action":  {"query"},
		"list":    {"users"},
		"ususers": {username},
		"usprop":  {"gender"},
	}

	var resp queryResponse
	if err := client.Get(ctx, "userinfo", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Query.Users) == 0 {
		return nil, badResponse("userinfo", "no users")
	}

	u := resp.Query.Users[0]
	if u.Missing {
		return user, nil
	}
	switch mediatypes.Gender(u.Gender) {
	case mediatypes.GenderMale, mediatypes.GenderFemale:
		user.Gender = mediatypes.Gender(u.Gender)
	}
	return user, nil
}
