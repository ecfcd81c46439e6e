package spacetraveling

import (
	"context"
	"fmt"

	"github.com/eringen/spacetraveling/cms"
)

// Site generates page data from a content source. It is built once with an
// explicit source handle and shared by the server and the static exporter.
type Site struct {
	Source      cms.Source
	ContentType string
	PageSize    int
}

// ListingProps returns the first listing page for the home page.
func (s *Site) ListingProps(ctx context.Context) (ListingProps, error) {
	page, err := s.Source.List(ctx, s.ContentType, s.PageSize)
	if err != nil {
		return ListingProps{}, fmt.Errorf("list %s: %w", s.ContentType, err)
	}
	return ListingProps{PostsPagination: ProjectListing(page)}, nil
}

// AllPosts walks every listing page and returns the accumulated listing.
func (s *Site) AllPosts(ctx context.Context) ([]ListItem, error) {
	props, err := s.ListingProps(ctx)
	if err != nil {
		return nil, err
	}
	all, err := NewPaginator(s.Source, props.PostsPagination).Drain(ctx)
	if err != nil {
		return nil, err
	}
	return all.Results, nil
}

// DetailPaths returns the slug of every post, in listing order.
func (s *Site) DetailPaths(ctx context.Context) ([]string, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.UID != "" {
			slugs = append(slugs, p.UID)
		}
	}
	return slugs, nil
}

// DetailProps returns the post with the given slug. cms.ErrNotFound is
// passed through so callers can render a not-found page.
func (s *Site) DetailProps(ctx context.Context, slug string) (DetailProps, error) {
	doc, err := s.Source.GetByUID(ctx, s.ContentType, slug)
	if err != nil {
		return DetailProps{}, fmt.Errorf("get %s %q: %w", s.ContentType, slug, err)
	}
	post, err := ProjectDetail(doc)
	if err != nil {
		return DetailProps{}, err
	}
	return DetailProps{Post: post}, nil
}

// LoadMore fetches the page behind cursor, for a browser whose listing
// state currently ends there.
func (s *Site) LoadMore(ctx context.Context, cursor string) (ListingPage, error) {
	if cursor == "" {
		return ListingPage{}, ErrExhausted
	}
	return NewPaginator(s.Source, ListingPage{NextPage: cursor}).LoadMore(ctx)
}
