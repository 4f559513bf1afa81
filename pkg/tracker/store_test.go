package tracker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/ghcrm/pkg/client"
)

type fakeAPI struct {
	mu       sync.Mutex
	list     func(client.ListParams) (*client.RepositoryList, error)
	add      func(string) (*client.Repository, error)
	refresh  func(uint) (*client.Repository, error)
	remove   func(uint) error
	search   func(string) ([]client.SearchResult, error)
	listed   []client.ListParams
	searched []string
}

func (f *fakeAPI) ListRepositories(_ context.Context, params client.ListParams) (*client.RepositoryList, error) {
	f.mu.Lock()
	f.listed = append(f.listed, params)
	fn := f.list
	f.mu.Unlock()
	return fn(params)
}

func (f *fakeAPI) AddRepository(_ context.Context, path string) (*client.Repository, error) {
	return f.add(path)
}

func (f *fakeAPI) RefreshRepository(_ context.Context, id uint) (*client.Repository, error) {
	return f.refresh(id)
}

func (f *fakeAPI) DeleteRepository(_ context.Context, id uint) error {
	return f.remove(id)
}

func (f *fakeAPI) SearchRepositories(_ context.Context, query string) ([]client.SearchResult, error) {
	f.mu.Lock()
	f.searched = append(f.searched, query)
	fn := f.search
	f.mu.Unlock()
	return fn(query)
}

func (f *fakeAPI) listCalls() []client.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.ListParams(nil), f.listed...)
}

func (f *fakeAPI) searchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searched...)
}

func repo(id uint, fullName string, stars int) client.Repository {
	return client.Repository{ID: id, FullName: fullName, Stars: stars}
}

func pageOf(params client.ListParams, total int64, items ...client.Repository) *client.RepositoryList {
	return &client.RepositoryList{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
}

func newTestStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	s := NewStore(api)
	t.Cleanup(s.Close)
	return s
}

func TestFetchRepositoriesLoadsPage(t *testing.T) {
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		return pageOf(p, 12, repo(1, "facebook/react", 200000), repo(2, "vuejs/vue", 180000)), nil
	}}
	s := newTestStore(t, api)

	s.FetchRepositories(context.Background(), FetchOverrides{})

	snap := s.Snapshot()
	assert.Len(t, snap.Repositories, 2)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 12}, snap.Pagination)
	assert.False(t, snap.Loading.Fetch)
	assert.Empty(t, snap.Errors.Fetch)
	assert.Equal(t, []client.ListParams{{Page: 1, Limit: 10}}, api.listCalls())

	nav := snap.Navigation()
	assert.False(t, nav.Prev)
	assert.True(t, nav.Next)
}

func TestFetchRepositoriesRejectsBadParams(t *testing.T) {
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		return pageOf(p, 0), nil
	}}
	s := newTestStore(t, api)

	s.FetchRepositories(context.Background(), FetchOverrides{Page: -1})
	assert.Equal(t, "page must be at least 1", s.Snapshot().Errors.Fetch)

	s.SetLimit(context.Background(), 101)
	assert.Equal(t, "limit must be between 1 and 100", s.Snapshot().Errors.Fetch)

	s.SetPage(context.Background(), 0)
	assert.Empty(t, api.listCalls())
	assert.Equal(t, DefaultLimit, s.Snapshot().Pagination.Limit)
}

func TestFetchFailureKeepsList(t *testing.T) {
	var fail atomic.Bool
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		if fail.Load() {
			return nil, &client.APIError{Status: http.StatusBadRequest, Kind: "validation_error", Message: "search is too long"}
		}
		return pageOf(p, 1, repo(1, "facebook/react", 1)), nil
	}}
	s := newTestStore(t, api)
	ctx := context.Background()

	s.FetchRepositories(ctx, FetchOverrides{})
	fail.Store(true)
	s.SetSearchQuery(ctx, "react")

	snap := s.Snapshot()
	assert.Equal(t, "search is too long", snap.Errors.Fetch)
	assert.Len(t, snap.Repositories, 1)
	assert.Equal(t, "react", snap.SearchQuery)

	api.mu.Lock()
	api.list = func(client.ListParams) (*client.RepositoryList, error) { return nil, errors.New("connection refused") }
	api.mu.Unlock()

	s.SetPage(ctx, 2)
	assert.Equal(t, MsgFetchFailed, s.Snapshot().Errors.Fetch)
}

func TestStaleFetchIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		if p.Page == 1 {
			close(started)
			<-release
			return pageOf(p, 30, repo(1, "old/page", 1)), nil
		}
		return pageOf(p, 30, repo(2, "new/page", 1)), nil
	}}
	s := newTestStore(t, api)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.FetchRepositories(ctx, FetchOverrides{})
	}()
	<-started

	s.SetPage(ctx, 2)
	close(release)
	<-done

	snap := s.Snapshot()
	require.Len(t, snap.Repositories, 1)
	assert.Equal(t, "new/page", snap.Repositories[0].FullName)
	assert.Equal(t, 2, snap.Pagination.Page)
	assert.False(t, snap.Loading.Fetch)
}

func TestSearchQueryAndLimitResetPage(t *testing.T) {
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		return pageOf(p, 100, repo(1, "a/b", 1)), nil
	}}
	s := newTestStore(t, api)
	ctx := context.Background()

	s.SetPage(ctx, 3)
	s.SetSearchQuery(ctx, "vue")
	s.SetPage(ctx, 2)
	s.SetLimit(ctx, 25)

	assert.Equal(t, []client.ListParams{
		{Page: 3, Limit: 10},
		{Page: 1, Limit: 10, Search: "vue"},
		{Page: 2, Limit: 10, Search: "vue"},
		{Page: 1, Limit: 25, Search: "vue"},
	}, api.listCalls())
	assert.Equal(t, Pagination{Page: 1, Limit: 25, Total: 100}, s.Snapshot().Pagination)
}

func TestAddRepository(t *testing.T) {
	api := &fakeAPI{
		list: func(p client.ListParams) (*client.RepositoryList, error) {
			return pageOf(p, 1, repo(1, "facebook/react", 1)), nil
		},
		add: func(path string) (*client.Repository, error) {
			switch path {
			case "vuejs/vue":
				r := repo(2, "vuejs/vue", 180000)
				return &r, nil
			case "facebook/react":
				return nil, &client.APIError{Status: http.StatusConflict, Kind: "conflict", Message: "repository already exists"}
			}
			return nil, errors.New("timeout")
		},
	}
	s := newTestStore(t, api)
	ctx := context.Background()
	s.FetchRepositories(ctx, FetchOverrides{})

	assert.True(t, s.AddRepository(ctx, "  vuejs/vue "))
	snap := s.Snapshot()
	require.Len(t, snap.Repositories, 2)
	assert.Equal(t, "vuejs/vue", snap.Repositories[1].FullName)
	assert.EqualValues(t, 1, snap.Pagination.Total)
	assert.False(t, snap.Loading.Add)

	assert.False(t, s.AddRepository(ctx, "facebook/react"))
	assert.Equal(t, "repository already exists", s.Snapshot().Errors.Add)

	assert.False(t, s.AddRepository(ctx, "x/y"))
	assert.Equal(t, MsgAddFailed, s.Snapshot().Errors.Add)
	assert.Len(t, s.Snapshot().Repositories, 2)

	s.ClearErrors(ErrorAdd)
	assert.Empty(t, s.Snapshot().Errors.Add)
}

func TestUpdateAndDeleteRepository(t *testing.T) {
	api := &fakeAPI{
		list: func(p client.ListParams) (*client.RepositoryList, error) {
			return pageOf(p, 2, repo(1, "facebook/react", 1), repo(2, "vuejs/vue", 2)), nil
		},
		refresh: func(id uint) (*client.Repository, error) {
			if id == 1 {
				r := repo(1, "facebook/react", 999)
				return &r, nil
			}
			return nil, &client.APIError{Status: http.StatusBadGateway, Kind: "upstream_error"}
		},
		remove: func(id uint) error {
			if id == 2 {
				return nil
			}
			return &client.APIError{Status: http.StatusNotFound, Kind: "not_found", Message: "repository not found"}
		},
	}
	s := newTestStore(t, api)
	ctx := context.Background()
	s.FetchRepositories(ctx, FetchOverrides{})

	s.UpdateRepository(ctx, 1)
	snap := s.Snapshot()
	assert.Equal(t, 999, snap.Repositories[0].Stars)
	assert.Equal(t, "vuejs/vue", snap.Repositories[1].FullName)

	s.UpdateRepository(ctx, 2)
	assert.Equal(t, MsgUpdateFailed, s.Snapshot().Errors.Update)

	s.DeleteRepository(ctx, 2)
	snap = s.Snapshot()
	require.Len(t, snap.Repositories, 1)
	assert.Equal(t, uint(1), snap.Repositories[0].ID)

	s.DeleteRepository(ctx, 1)
	snap = s.Snapshot()
	assert.Equal(t, "repository not found", snap.Errors.Delete)
	assert.Len(t, snap.Repositories, 1)

	s.ClearErrors(ErrorAll)
	assert.Equal(t, Errors{}, s.Snapshot().Errors)
}

func TestSearchIsDebounced(t *testing.T) {
	api := &fakeAPI{search: func(q string) ([]client.SearchResult, error) {
		return []client.SearchResult{{
			ID: 10, FullName: "facebook/react", Description: "UI library", StargazersCount: 200000,
			Owner: client.SearchOwner{Login: "facebook", AvatarURL: "https://avatars.example/fb"},
		}}, nil
	}}
	s := newTestStore(t, api)

	for _, q := range []string{"rea", "reac", " react "} {
		s.SearchRepositories(q)
	}

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Suggestions) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"react"}, api.searchCalls())
	assert.Equal(t, SearchOption{
		Value: "facebook/react", Label: "facebook/react", Stars: 200000,
		Description: "UI library", AvatarURL: "https://avatars.example/fb",
	}, s.Snapshot().Suggestions[0])
}

func TestShortSearchClearsSuggestions(t *testing.T) {
	api := &fakeAPI{search: func(string) ([]client.SearchResult, error) {
		return []client.SearchResult{{FullName: "facebook/react"}}, nil
	}}
	s := newTestStore(t, api)

	s.SearchRepositories("react")
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Suggestions) == 1
	}, time.Second, 5*time.Millisecond)

	s.SearchRepositories("vue")
	s.SearchRepositories("re")
	assert.Empty(t, s.Snapshot().Suggestions)

	time.Sleep(3 * SearchDelay)
	assert.Equal(t, []string{"react"}, api.searchCalls())
	assert.Empty(t, s.Snapshot().Suggestions)
}

func TestSearchFailureClearsSuggestions(t *testing.T) {
	var fail atomic.Bool
	api := &fakeAPI{search: func(string) ([]client.SearchResult, error) {
		if fail.Load() {
			return nil, errors.New("bad gateway")
		}
		return []client.SearchResult{{FullName: "facebook/react"}}, nil
	}}
	s := newTestStore(t, api)

	s.SearchRepositories("react")
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Suggestions) == 1
	}, time.Second, 5*time.Millisecond)

	fail.Store(true)
	s.SearchRepositories("reactive")
	require.Eventually(t, func() bool {
		return s.Snapshot().Errors.Search == MsgSearchFailed
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Empty(t, snap.Suggestions)
	assert.False(t, snap.Loading.Search)
}

func TestSubscribersSeeEveryTransition(t *testing.T) {
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		return pageOf(p, 1, repo(1, "a/b", 1)), nil
	}}
	s := newTestStore(t, api)

	var seen []bool
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.Loading.Fetch)
	})

	s.FetchRepositories(context.Background(), FetchOverrides{})
	assert.Equal(t, []bool{true, false}, seen)

	unsubscribe()
	unsubscribe()
	s.FetchRepositories(context.Background(), FetchOverrides{})
	assert.Len(t, seen, 2)
}

func TestCloseDropsInFlightResults(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{list: func(p client.ListParams) (*client.RepositoryList, error) {
		close(started)
		<-release
		return pageOf(p, 1, repo(1, "a/b", 1)), nil
	}}
	s := NewStore(api)

	var notified atomic.Int32
	s.Subscribe(func(Snapshot) { notified.Add(1) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.FetchRepositories(context.Background(), FetchOverrides{})
	}()
	<-started
	before := notified.Load()

	s.Close()
	close(release)
	<-done

	assert.Empty(t, s.Snapshot().Repositories)
	assert.Equal(t, before, notified.Load())

	s.SearchRepositories("react")
	time.Sleep(2 * SearchDelay)
	assert.Empty(t, api.searchCalls())
}
