package spacetraveling

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/spacetraveling/cms"
)

var (
	// ErrExhausted is returned by LoadMore when there is no next page.
	ErrExhausted = errors.New("pagination: no more pages")
	// ErrLoadInFlight is returned by LoadMore while another load is outstanding.
	ErrLoadInFlight = errors.New("pagination: load already in progress")
)

// Advance returns the state after fetched has been loaded on top of state:
// fetched results appended in order and the cursor replaced. Neither input
// is modified.
func Advance(state, fetched ListingPage) ListingPage {
	results := make([]ListItem, 0, len(state.Results)+len(fetched.Results))
	results = append(results, state.Results...)
	results = append(results, fetched.Results...)
	return ListingPage{
		NextPage: fetched.NextPage,
		Results:  results,
	}
}

// Paginator holds the listing state of one page view and loads further
// pages from a source on demand. Results only ever grow; a page that
// appears twice upstream is shown twice.
type Paginator struct {
	src cms.Source

	mu       sync.Mutex
	state    ListingPage
	inFlight bool
}

// NewPaginator seeds a Paginator with the first page.
func NewPaginator(src cms.Source, first ListingPage) *Paginator {
	return &Paginator{src: src, state: first}
}

// State returns a snapshot of the accumulated listing.
func (p *Paginator) State() ListingPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ListingPage{
		NextPage: p.state.NextPage,
		Results:  append([]ListItem(nil), p.state.Results...),
	}
}

// LoadMore fetches the next page and appends it. On failure the state is
// unchanged and the returned *cms.FetchError may be retried. Only one load
// runs at a time; overlapping calls get ErrLoadInFlight.
func (p *Paginator) LoadMore(ctx context.Context) (ListingPage, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return ListingPage{}, ErrLoadInFlight
	}
	cursor := p.state.NextPage
	if cursor == "" {
		p.mu.Unlock()
		return ListingPage{}, ErrExhausted
	}
	p.inFlight = true
	p.mu.Unlock()

	page, err := p.src.FetchCursor(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if err != nil {
		return ListingPage{}, cms.AsFetchError(cursor, err)
	}
	fetched := ProjectListing(page)
	p.state = Advance(p.state, fetched)
	return fetched, nil
}

// Drain loads pages until the listing is exhausted and returns the full
// state.
func (p *Paginator) Drain(ctx context.Context) (ListingPage, error) {
	for {
		_, err := p.LoadMore(ctx)
		if errors.Is(err, ErrExhausted) {
			return p.State(), nil
		}
		if err != nil {
			return ListingPage{}, err
		}
	}
}
