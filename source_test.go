package spacetraveling

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/eringen/spacetraveling/cms"
	"github.com/eringen/spacetraveling/richtext"
)

// fakeSource serves documents in fixed-size pages with "page:N" cursors.
// Failing cursors return a FetchError until cleared; block, when set,
// holds FetchCursor until it is closed.
type fakeSource struct {
	mu       sync.Mutex
	docs     []cms.Document
	pageSize int
	failing  map[string]bool
	fetches  int
	block    chan struct{}
	started  chan struct{}
}

func newFakeSource(pageSize int, uids ...string) *fakeSource {
	s := &fakeSource{pageSize: pageSize, failing: map[string]bool{}}
	for _, uid := range uids {
		s.docs = append(s.docs, testDoc(uid))
	}
	return s
}

func testDoc(uid string) cms.Document {
	return cms.Document{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 "posts",
		FirstPublicationDate: "2021-03-25T19:25:28+0000",
		Data: cms.Data{
			Title:    "Title " + uid,
			Subtitle: "Subtitle " + uid,
			Author:   "Author " + uid,
			Banner:   &cms.Image{URL: "https://images.prismic.io/" + uid + ".png"},
			Content: []cms.Block{{
				Heading: "Intro",
				Body:    []richtext.Fragment{{Type: richtext.TypeParagraph, Text: "Hello world test"}},
			}},
		},
	}
}

func (s *fakeSource) page(n int) cms.Page {
	start := (n - 1) * s.pageSize
	end := start + s.pageSize
	if start > len(s.docs) {
		start = len(s.docs)
	}
	if end > len(s.docs) {
		end = len(s.docs)
	}
	p := cms.Page{Page: n, Results: append([]cms.Document(nil), s.docs[start:end]...)}
	if end < len(s.docs) {
		p.NextPage = "page:" + strconv.Itoa(n+1)
	}
	return p
}

func (s *fakeSource) List(ctx context.Context, contentType string, pageSize int) (cms.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page(1), nil
}

func (s *fakeSource) GetByUID(ctx context.Context, contentType, uid string) (cms.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.UID == uid {
			return d, nil
		}
	}
	return cms.Document{}, cms.ErrNotFound
}

func (s *fakeSource) FetchCursor(ctx context.Context, cursor string) (cms.Page, error) {
	s.mu.Lock()
	s.fetches++
	block, started := s.block, s.started
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[cursor] {
		return cms.Page{}, &cms.FetchError{Cursor: cursor, Status: 503}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page:"))
	if err != nil || !strings.HasPrefix(cursor, "page:") {
		return cms.Page{}, &cms.FetchError{Cursor: cursor, Err: cms.ErrInvalidCursor}
	}
	return s.page(n), nil
}

func (s *fakeSource) setFailing(cursor string, failing bool) {
	s.mu.Lock()
	s.failing[cursor] = failing
	s.mu.Unlock()
}
