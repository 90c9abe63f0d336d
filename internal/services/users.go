package services

import (
	"context"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/listing"
)

type UserService struct {
	API *api.Client
	Seq *listing.Sequencers
}

func NewUserService(client *api.Client, seq *listing.Sequencers) *UserService {
	return &UserService{API: client, Seq: seq}
}

// List fetches one page of users. An unfiltered list sizes its pager from
// the user count; the count ignores the search term, so a search keeps the
// totals of the list response.
func (s *UserService) List(ctx context.Context, sid, cred string, q listing.Query) (api.Page[domain.User], error) {
	tk := s.Seq.For(sid + ":users").Begin(ctx)
	defer tk.Done()
	page, err := s.API.ListUsers(tk.Context(), cred, q)
	if err == nil && q.Filter.Search == "" {
		var n int
		if n, err = s.API.UserCount(tk.Context(), cred); err == nil && n > 0 {
			page.Info = listing.Info(n, q.Page, q.Limit)
		}
	}
	if !tk.Current() {
		return api.Page[domain.User]{}, ErrStale
	}
	return page, err
}
