package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/cms"
)

// fakeRepo serves a minimal Prismic API with a posts type split into pages.
type fakeRepo struct {
	srv       *httptest.Server
	docs      []map[string]any
	failures  atomic.Int32 // number of upcoming search requests answered with 503
	searches  atomic.Int32
	lastQuery atomic.Value
}

func newFakeRepo(t *testing.T, docs []map[string]any) *fakeRepo {
	t.Helper()
	r := &fakeRepo{docs: docs}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"refs": []map[string]any{
				{"id": "master", "ref": "master-ref", "label": "Master", "isMasterRef": true},
			},
		})
	})
	mux.HandleFunc("/api/v2/documents/search", r.search)
	r.srv = httptest.NewServer(mux)
	t.Cleanup(r.srv.Close)
	return r
}

func (r *fakeRepo) endpoint() string { return r.srv.URL + "/api/v2" }

func (r *fakeRepo) search(w http.ResponseWriter, req *http.Request) {
	r.searches.Add(1)
	r.lastQuery.Store(req.URL.Query())
	if r.failures.Load() > 0 {
		r.failures.Add(-1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	q := req.URL.Query()
	if q.Get("ref") == "" {
		http.Error(w, "missing ref", http.StatusBadRequest)
		return
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 20
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	var matched []map[string]any
	switch pred := q.Get("q"); pred {
	case `[[at(document.type,"posts")]]`:
		matched = r.docs
	default:
		for _, d := range r.docs {
			if pred == `[[at(my.posts.uid,"`+d["uid"].(string)+`")]]` || pred == `[[at(document.id,"`+d["id"].(string)+`")]]` {
				matched = append(matched, d)
			}
		}
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	totalPages := (len(matched) + pageSize - 1) / pageSize
	var next any
	if page < totalPages {
		nq := req.URL.Query()
		nq.Set("page", strconv.Itoa(page+1))
		next = r.srv.URL + req.URL.Path + "?" + nq.Encode()
	}
	writeJSON(w, map[string]any{
		"page":        page,
		"total_pages": totalPages,
		"next_page":   next,
		"results":     matched[start:end],
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func post(uid string) map[string]any {
	return map[string]any{
		"id":                     "id-" + uid,
		"uid":                    uid,
		"type":                   "posts",
		"first_publication_date": "2021-03-25T19:25:28+0000",
		"data": map[string]any{
			"title":    "Title " + uid,
			"subtitle": "Sub " + uid,
			"author":   "Author",
			"banner":   map[string]any{"url": "https://images.prismic.io/" + uid + ".png"},
			"content": []map[string]any{
				{"heading": "Intro", "body": []map[string]any{{"type": "paragraph", "text": "Hello world test", "spans": []any{}}}},
			},
		},
	}
}

func newTestClient(t *testing.T, repo *fakeRepo, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetry(3, time.Millisecond)}, opts...)
	c, err := New(repo.endpoint(), opts...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeEndpoint(t *testing.T) {
	_, err := New("/api/v2")
	require.Error(t, err)
	_, err = New("ftp://repo.prismic.io/api/v2")
	require.Error(t, err)
}

func TestListAndFetchCursor(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a"), post("b"), post("c")})
	c := newTestClient(t, repo)
	ctx := context.Background()

	page, err := c.List(ctx, "posts", 2)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	require.Equal(t, "a", page.Results[0].UID)
	require.Equal(t, "Title a", page.Results[0].Data.Title)
	require.NotEmpty(t, page.NextPage)

	next, err := c.FetchCursor(ctx, page.NextPage)
	require.NoError(t, err)
	require.Len(t, next.Results, 1)
	require.Equal(t, "c", next.Results[0].UID)
	require.Empty(t, next.NextPage)
}

func TestListSendsOrderings(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo, WithOrderings("[document.first_publication_date desc]"))

	_, err := c.List(context.Background(), "posts", 1)
	require.NoError(t, err)
	q := repo.lastQuery.Load().(url.Values)
	require.Equal(t, []string{"[document.first_publication_date desc]"}, q["orderings"])
	require.Equal(t, []string{"master-ref"}, q["ref"])
}

func TestCursorDoesNotLeakAccessToken(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a"), post("b")})
	c := newTestClient(t, repo, WithAccessToken("secret"))
	ctx := context.Background()

	page, err := c.List(ctx, "posts", 1)
	require.NoError(t, err)
	require.NotContains(t, page.NextPage, "secret")

	_, err = c.FetchCursor(ctx, page.NextPage)
	require.NoError(t, err)
	q := repo.lastQuery.Load().(url.Values)
	require.Equal(t, []string{"secret"}, q["access_token"])
}

func TestGetByUID(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a"), post("b")})
	c := newTestClient(t, repo)

	doc, err := c.GetByUID(context.Background(), "posts", "b")
	require.NoError(t, err)
	require.Equal(t, "b", doc.UID)
	require.Len(t, doc.Data.Content, 1)

	_, err = c.GetByUID(context.Background(), "posts", "missing")
	require.ErrorIs(t, err, cms.ErrNotFound)
}

func TestGetByID(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo)

	doc, err := c.GetByID(context.Background(), "id-a")
	require.NoError(t, err)
	require.Equal(t, "a", doc.UID)
}

func TestPreviewRefOverridesMaster(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo)

	ctx := cms.WithRef(context.Background(), "preview-ref")
	_, err := c.List(ctx, "posts", 1)
	require.NoError(t, err)
	q := repo.lastQuery.Load().(url.Values)
	require.Equal(t, []string{"preview-ref"}, q["ref"])
}

func TestFetchCursorRejectsForeignHost(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo)

	_, err := c.FetchCursor(context.Background(), "https://evil.example/api/v2/documents/search?page=2")
	require.ErrorIs(t, err, cms.ErrInvalidCursor)
	var fe *cms.FetchError
	require.ErrorAs(t, err, &fe)
	require.False(t, fe.Temporary())
	require.Zero(t, repo.searches.Load())
}

func TestRetriesTransientFailures(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo)
	repo.failures.Store(2)

	page, err := c.List(context.Background(), "posts", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Equal(t, int32(3), repo.searches.Load())
}

func TestGivesUpAfterMaxTries(t *testing.T) {
	repo := newFakeRepo(t, []map[string]any{post("a")})
	c := newTestClient(t, repo)
	repo.failures.Store(10)

	_, err := c.List(context.Background(), "posts", 1)
	var fe *cms.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusServiceUnavailable, fe.Status)
	require.True(t, fe.Temporary())
	require.Equal(t, int32(3), repo.searches.Load())
}

func TestMalformedResponseIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/v2", WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	_, err = c.FetchCursor(context.Background(), srv.URL+"/api/v2/documents/search?page=2")
	var fe *cms.FetchError
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe.Error(), "decode response")
}

func TestValidatePreviewToken(t *testing.T) {
	c, err := New("https://spacetraveling.cdn.prismic.io/api/v2")
	require.NoError(t, err)

	require.NoError(t, c.ValidatePreviewToken("https://spacetraveling.prismic.io/previews/abc?websitePreviewId=1"))
	require.NoError(t, c.ValidatePreviewToken("https://spacetraveling.cdn.prismic.io/previews/abc"))
	require.Error(t, c.ValidatePreviewToken("https://other.prismic.io/previews/abc"))
	require.Error(t, c.ValidatePreviewToken("https://spacetraveling.evil.example/previews/abc"))
	require.Error(t, c.ValidatePreviewToken("not a url"))
}
