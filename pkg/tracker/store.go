// Package tracker holds the client-side state of a user's tracked
// repositories. UIs drive it through commands and re-render from snapshots
// delivered to subscribers.
package tracker

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bravo68web/ghcrm/pkg/client"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

const (
	// SearchDelay is the quiet period before a typeahead search runs
	SearchDelay = 100 * time.Millisecond
	// MinSearchLength is the shortest query sent upstream
	MinSearchLength = 3
)

// Fallback error messages, used when the server gives none
const (
	MsgFetchFailed  = "Failed to fetch repositories"
	MsgAddFailed    = "Failed to add repository"
	MsgUpdateFailed = "Failed to update repository"
	MsgDeleteFailed = "Failed to delete repository"
	MsgSearchFailed = "Failed to search repositories"
)

// API is the part of the HTTP client the store drives
type API interface {
	ListRepositories(ctx context.Context, params client.ListParams) (*client.RepositoryList, error)
	AddRepository(ctx context.Context, path string) (*client.Repository, error)
	RefreshRepository(ctx context.Context, id uint) (*client.Repository, error)
	DeleteRepository(ctx context.Context, id uint) error
	SearchRepositories(ctx context.Context, query string) ([]client.SearchResult, error)
}

var _ API = (*client.Client)(nil)

// Loading flags one in-flight state per operation
type Loading struct {
	Fetch  bool
	Add    bool
	Update bool
	Delete bool
	Search bool
}

// Any reports whether any operation is in flight
func (l Loading) Any() bool {
	return l.Fetch || l.Add || l.Update || l.Delete || l.Search
}

// Errors holds the last error message per operation. Empty means no error.
type Errors struct {
	Fetch  string
	Add    string
	Update string
	Delete string
	Search string
}

// ErrorKind selects an error slot for ClearErrors
type ErrorKind string

const (
	ErrorFetch  ErrorKind = "fetch"
	ErrorAdd    ErrorKind = "add"
	ErrorUpdate ErrorKind = "update"
	ErrorDelete ErrorKind = "delete"
	ErrorSearch ErrorKind = "search"
	ErrorAll    ErrorKind = "all"
)

// SearchOption is one typeahead suggestion
type SearchOption struct {
	Value       string
	Label       string
	Stars       int
	Description string
	AvatarURL   string
}

// FetchOverrides replace parts of the current query for one fetch.
// Zero Page or Limit and a nil Search keep the current value.
type FetchOverrides struct {
	Page   int
	Limit  int
	Search *string
}

// Snapshot is a copy of the store's state, safe to keep and read
type Snapshot struct {
	Repositories []client.Repository
	Suggestions  []SearchOption
	Pagination   Pagination
	SearchQuery  string
	Loading      Loading
	Errors       Errors
}

// View picks what the list area should show
func (s Snapshot) View() ViewState {
	return ViewStateFor(len(s.Repositories), s.SearchQuery, s.Pagination.Total)
}

// Navigation says which page controls are usable
func (s Snapshot) Navigation() Navigation {
	return NavigationFor(s.Pagination, s.Loading.Fetch)
}

// Store is the shared repository state container. Methods are safe for
// concurrent use and block only on their own network call.
type Store struct {
	api API
	log *logger.Logger

	mu           sync.Mutex
	repositories []client.Repository
	suggestions  []SearchOption
	pagination   Pagination
	searchQuery  string
	loading      Loading
	errors       Errors
	fetchGen     uint64
	searchGen    uint64
	closed       bool

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int

	debouncer *Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewStore creates an empty store on page 1 with the default page size
func NewStore(api API) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		api:          api,
		log:          logger.Get().WithFields(logger.Component("tracker")),
		repositories: []client.Repository{},
		suggestions:  []SearchOption{},
		pagination:   Pagination{Page: DefaultPage, Limit: DefaultLimit},
		subscribers:  make(map[int]func(Snapshot)),
		debouncer:    NewDebouncer(SearchDelay),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Repositories: slices.Clone(s.repositories),
		Suggestions:  slices.Clone(s.suggestions),
		Pagination:   s.pagination,
		SearchQuery:  s.searchQuery,
		Loading:      s.loading,
		Errors:       s.errors,
	}
}

// Subscribe registers fn to receive a snapshot after every state change
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// notify hands the current state to every subscriber. Never call with mu held.
func (s *Store) notify() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Close stops the debouncer and cancels in-flight calls. Their results are
// dropped and no further notifications are delivered.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Stop()
	s.cancel()

	s.subMu.Lock()
	clear(s.subscribers)
	s.subMu.Unlock()
}

// FetchRepositories loads the list for the current query with overrides applied.
// Only the latest fetch may write its result; earlier responses are dropped.
func (s *Store) FetchRepositories(ctx context.Context, overrides FetchOverrides) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	params := client.ListParams{
		Page:   s.pagination.Page,
		Limit:  s.pagination.Limit,
		Search: s.searchQuery,
	}
	if overrides.Page != 0 {
		params.Page = overrides.Page
	}
	if overrides.Limit != 0 {
		params.Limit = overrides.Limit
	}
	if overrides.Search != nil {
		params.Search = *overrides.Search
	}

	if msg := validateParams(params); msg != "" {
		s.errors.Fetch = msg
		s.mu.Unlock()
		s.notify()
		return
	}

	s.fetchGen++
	gen := s.fetchGen
	s.pagination.Page = params.Page
	s.pagination.Limit = params.Limit
	s.loading.Fetch = true
	s.errors.Fetch = ""
	s.mu.Unlock()
	s.notify()

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	list, err := s.api.ListRepositories(ctx, params)

	s.mu.Lock()
	if s.closed || gen != s.fetchGen {
		s.mu.Unlock()
		return
	}
	s.loading.Fetch = false
	if err != nil {
		s.errors.Fetch = messageFor(err, MsgFetchFailed)
		s.log.Debug("Fetch failed", logger.Error(err))
	} else {
		s.repositories = slices.Clone(list.Items)
		s.pagination = Pagination{Page: list.Page, Limit: list.Limit, Total: list.Total}
	}
	s.mu.Unlock()
	s.notify()
}

func validateParams(p client.ListParams) string {
	switch {
	case p.Page < 1:
		return "page must be at least 1"
	case p.Limit < 1 || p.Limit > MaxLimit:
		return "limit must be between 1 and 100"
	}
	return ""
}

// SetSearchQuery filters the list and goes back to page 1
func (s *Store) SetSearchQuery(ctx context.Context, query string) {
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()

	s.FetchRepositories(ctx, FetchOverrides{Page: DefaultPage, Search: &query})
}

// SetPage moves to page and fetches it
func (s *Store) SetPage(ctx context.Context, page int) {
	if page < 1 {
		s.recordFetchError("page must be at least 1")
		return
	}
	s.FetchRepositories(ctx, FetchOverrides{Page: page})
}

// SetLimit changes the page size and goes back to page 1
func (s *Store) SetLimit(ctx context.Context, limit int) {
	if limit < 1 || limit > MaxLimit {
		s.recordFetchError("limit must be between 1 and 100")
		return
	}
	s.FetchRepositories(ctx, FetchOverrides{Page: DefaultPage, Limit: limit})
}

func (s *Store) recordFetchError(msg string) {
	s.mu.Lock()
	s.errors.Fetch = msg
	s.mu.Unlock()
	s.notify()
}

// AddRepository tracks path and appends it to the list once the server confirms.
// It reports whether the add succeeded.
func (s *Store) AddRepository(ctx context.Context, path string) bool {
	if !s.begin(func(l *Loading, e *Errors) { l.Add = true; e.Add = "" }) {
		return false
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	repo, err := s.api.AddRepository(ctx, strings.TrimSpace(path))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.loading.Add = false
	if err != nil {
		s.errors.Add = messageFor(err, MsgAddFailed)
	} else {
		s.repositories = append(s.repositories, *repo)
	}
	s.mu.Unlock()
	s.notify()

	return err == nil
}

// UpdateRepository refreshes one repository's counts and replaces it in place
func (s *Store) UpdateRepository(ctx context.Context, id uint) {
	if !s.begin(func(l *Loading, e *Errors) { l.Update = true; e.Update = "" }) {
		return
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	repo, err := s.api.RefreshRepository(ctx, id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loading.Update = false
	if err != nil {
		s.errors.Update = messageFor(err, MsgUpdateFailed)
	} else {
		for i := range s.repositories {
			if s.repositories[i].ID == repo.ID {
				s.repositories[i] = *repo
			}
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteRepository removes a repository from the list after the server deletes it
func (s *Store) DeleteRepository(ctx context.Context, id uint) {
	if !s.begin(func(l *Loading, e *Errors) { l.Delete = true; e.Delete = "" }) {
		return
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	err := s.api.DeleteRepository(ctx, id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loading.Delete = false
	if err != nil {
		s.errors.Delete = messageFor(err, MsgDeleteFailed)
	} else {
		s.repositories = slices.DeleteFunc(s.repositories, func(r client.Repository) bool {
			return r.ID == id
		})
	}
	s.mu.Unlock()
	s.notify()
}

// SearchRepositories schedules a typeahead search. Queries shorter than
// MinSearchLength clear the suggestions at once and drop any pending search.
func (s *Store) SearchRepositories(query string) {
	query = strings.TrimSpace(query)

	if utf8.RuneCountInString(query) < MinSearchLength {
		s.debouncer.Cancel()

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.searchGen++
		s.suggestions = []SearchOption{}
		s.loading.Search = false
		s.mu.Unlock()
		s.notify()
		return
	}

	s.debouncer.Call(func() { s.runSearch(query) })
}

func (s *Store) runSearch(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.searchGen++
	gen := s.searchGen
	s.loading.Search = true
	s.errors.Search = ""
	s.mu.Unlock()
	s.notify()

	ctx, cancel := s.callContext(context.Background())
	defer cancel()
	results, err := s.api.SearchRepositories(ctx, query)

	s.mu.Lock()
	if s.closed || gen != s.searchGen {
		s.mu.Unlock()
		return
	}
	s.loading.Search = false
	if err != nil {
		s.suggestions = []SearchOption{}
		s.errors.Search = messageFor(err, MsgSearchFailed)
	} else {
		s.suggestions = toOptions(results)
	}
	s.mu.Unlock()
	s.notify()
}

// ClearSuggestions discards the typeahead results and any pending search
func (s *Store) ClearSuggestions() {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.searchGen++
	s.suggestions = []SearchOption{}
	s.loading.Search = false
	s.mu.Unlock()
	s.notify()
}

// ClearErrors empties one error slot, or all of them for ErrorAll
func (s *Store) ClearErrors(kind ErrorKind) {
	s.mu.Lock()
	switch kind {
	case ErrorFetch:
		s.errors.Fetch = ""
	case ErrorAdd:
		s.errors.Add = ""
	case ErrorUpdate:
		s.errors.Update = ""
	case ErrorDelete:
		s.errors.Delete = ""
	case ErrorSearch:
		s.errors.Search = ""
	default:
		s.errors = Errors{}
	}
	s.mu.Unlock()
	s.notify()
}

// begin applies a loading/error transition and notifies. It is false once the store is closed.
func (s *Store) begin(apply func(*Loading, *Errors)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	apply(&s.loading, &s.errors)
	s.mu.Unlock()
	s.notify()
	return true
}

// callContext ties a call to both the caller's context and the store's lifetime
func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// messageFor prefers the server's message over the per-operation fallback
func messageFor(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func toOptions(results []client.SearchResult) []SearchOption {
	options := make([]SearchOption, 0, len(results))
	for _, r := range results {
		options = append(options, SearchOption{
			Value:       r.FullName,
			Label:       r.FullName,
			Stars:       r.StargazersCount,
			Description: r.Description,
			AvatarURL:   r.Owner.AvatarURL,
		})
	}
	return options
}
