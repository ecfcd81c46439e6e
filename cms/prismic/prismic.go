// Package prismic is a cms.Source backed by the Prismic REST API v2.
//
// A Client is built once per process and passed to whatever needs content;
// there is no package-level client.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/eringen/spacetraveling/cms"
)

const (
	maxResponseSize = 8 << 20 // 8MB
	defaultTimeout  = 10 * time.Second
	defaultMaxTries = 3
)

// Client talks to one Prismic repository.
type Client struct {
	endpoint      *url.URL
	accessToken   string
	orderings     string
	httpClient    *http.Client
	maxTries      uint
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithOrderings sets the orderings predicate used by List,
// e.g. "[document.first_publication_date desc]".
func WithOrderings(orderings string) Option {
	return func(c *Client) {
		c.orderings = orderings
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets how many times a request is attempted and the initial
// backoff interval between attempts.
func WithRetry(maxTries uint, interval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.retryInterval = interval
	}
}

// New returns a Client for the API endpoint, e.g.
// "https://my-repo.cdn.prismic.io/api/v2".
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) URL", endpoint)
	}
	c := &Client{
		endpoint:      u,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		maxTries:      defaultMaxTries,
		retryInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxTries == 0 {
		c.maxTries = 1
	}
	return c, nil
}

// List returns the first page of documents of contentType.
func (c *Client) List(ctx context.Context, contentType string, pageSize int) (cms.Page, error) {
	q := url.Values{}
	q.Set("q", predicate("document.type", contentType))
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if c.orderings != "" {
		q.Set("orderings", c.orderings)
	}
	return c.search(ctx, q)
}

// GetByUID returns the document of contentType with the given uid.
func (c *Client) GetByUID(ctx context.Context, contentType, uid string) (cms.Document, error) {
	q := url.Values{}
	q.Set("q", predicate("my."+contentType+".uid", uid))
	q.Set("pageSize", "1")
	return c.first(ctx, q)
}

// GetByID returns the document with the given CMS id, whatever its type.
func (c *Client) GetByID(ctx context.Context, id string) (cms.Document, error) {
	q := url.Values{}
	q.Set("q", predicate("document.id", id))
	q.Set("pageSize", "1")
	return c.first(ctx, q)
}

// FetchCursor follows a next_page cursor. Only cursors pointing at this
// client's search endpoint are accepted.
func (c *Client) FetchCursor(ctx context.Context, cursor string) (cms.Page, error) {
	u, err := url.Parse(cursor)
	if err != nil || u.Host != c.endpoint.Host || u.Path != c.searchPath() {
		return cms.Page{}, &cms.FetchError{Cursor: cursor, Err: cms.ErrInvalidCursor}
	}
	q := u.Query()
	if ref := cms.RefFromContext(ctx); ref != "" {
		q.Set("ref", ref)
	}
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	u.RawQuery = q.Encode()

	var page cms.Page
	if err := c.getJSON(ctx, u.String(), cursor, &page); err != nil {
		return cms.Page{}, err
	}
	page.NextPage = c.cursor(page.NextPage)
	return page, nil
}

// ValidatePreviewToken reports whether a preview token was issued for this
// repository. Tokens are URLs on the repository's own domain.
func (c *Client) ValidatePreviewToken(token string) error {
	u, err := url.Parse(token)
	if err != nil || u.Host == "" {
		return fmt.Errorf("prismic: malformed preview token")
	}
	if u.Host == c.endpoint.Host || (repositoryName(u.Host) == repositoryName(c.endpoint.Host) && strings.HasSuffix(u.Hostname(), ".prismic.io")) {
		return nil
	}
	return fmt.Errorf("prismic: preview token host %q does not belong to %q", u.Host, c.endpoint.Host)
}

func (c *Client) first(ctx context.Context, q url.Values) (cms.Document, error) {
	page, err := c.search(ctx, q)
	if err != nil {
		return cms.Document{}, err
	}
	if len(page.Results) == 0 {
		return cms.Document{}, cms.ErrNotFound
	}
	return page.Results[0], nil
}

func (c *Client) search(ctx context.Context, q url.Values) (cms.Page, error) {
	ref, err := c.ref(ctx)
	if err != nil {
		return cms.Page{}, err
	}
	q.Set("ref", ref)
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	u := *c.endpoint
	u.Path = c.searchPath()
	u.RawQuery = q.Encode()

	var page cms.Page
	if err := c.getJSON(ctx, u.String(), c.cursor(u.String()), &page); err != nil {
		return cms.Page{}, err
	}
	page.NextPage = c.cursor(page.NextPage)
	return page, nil
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// ref returns the preview ref from ctx, or the repository's current master
// ref. The master ref changes on every publish, so it is looked up per call.
func (c *Client) ref(ctx context.Context) (string, error) {
	if ref := cms.RefFromContext(ctx); ref != "" {
		return ref, nil
	}
	u := *c.endpoint
	if c.accessToken != "" {
		u.RawQuery = url.Values{"access_token": {c.accessToken}}.Encode()
	}
	var info apiInfo
	if err := c.getJSON(ctx, u.String(), c.endpoint.String(), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", &cms.FetchError{Cursor: c.endpoint.String(), Err: errors.New("no master ref")}
}

// getJSON fetches rawURL with retries and decodes the body into out. label
// is the token-free form of rawURL used in errors.
func (c *Client) getJSON(ctx context.Context, rawURL, label string, out any) error {
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.fetch(ctx, rawURL, label)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return cms.AsFetchError(label, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &cms.FetchError{Cursor: label, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, rawURL, label string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(&cms.FetchError{Cursor: label, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&cms.FetchError{Cursor: label, Err: err})
		}
		return nil, &cms.FetchError{Cursor: label, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &cms.FetchError{Cursor: label, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		fe := &cms.FetchError{Cursor: label, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		if fe.Temporary() {
			return nil, fe
		}
		return nil, backoff.Permanent(fe)
	}
	return body, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	return b
}

func (c *Client) searchPath() string {
	return c.endpoint.Path + "/documents/search"
}

// cursor strips the access token from a next_page URL so it can be handed
// to browsers. FetchCursor adds it back.
func (c *Client) cursor(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return next
	}
	q := u.Query()
	if !q.Has("access_token") {
		return next
	}
	q.Del("access_token")
	u.RawQuery = q.Encode()
	return u.String()
}

func predicate(path, value string) string {
	return "[[at(" + path + "," + strconv.Quote(value) + ")]]"
}

func repositoryName(host string) string {
	name, _, _ := strings.Cut(host, ".")
	return name
}
