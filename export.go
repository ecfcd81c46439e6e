package spacetraveling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/eringen/spacetraveling/cms"
)

// Exporter writes the whole site as static files: the listing, every post,
// pre-rendered load-more fragments, the feed, and the sitemap.
type Exporter struct {
	Config SiteConfig
	Source cms.Source
	Views  ViewFuncs
	OutDir string

	// Banners downloads banner images into the export instead of
	// linking the CMS image CDN.
	Banners    bool
	HTTPClient *http.Client
	// RequestsPerSecond paces calls to the source; 0 means unpaced.
	RequestsPerSecond float64
	// Workers bounds concurrent post renders (default 4).
	Workers int
	Logger  *log.Logger
}

// ExportStats summarizes an export.
type ExportStats struct {
	Posts     int
	MorePages int
	Failed    int
}

// StaticMoreURL is the URL of the n-th pre-rendered load-more fragment.
func StaticMoreURL(n int) string {
	return "/posts/more/" + strconv.Itoa(n) + "/"
}

// Export renders the site into OutDir. Posts that cannot be rendered are
// logged and skipped; their errors are returned joined after the rest of
// the site has been written.
func (x *Exporter) Export(ctx context.Context) (ExportStats, error) {
	logger := x.Logger
	if logger == nil {
		logger = log.New("export")
	}
	src := x.Source
	if x.RequestsPerSecond > 0 {
		src = &pacedSource{src: src, lim: rate.NewLimiter(rate.Limit(x.RequestsPerSecond), 1)}
	}
	site := &Site{Source: src, ContentType: x.Config.ContentType, PageSize: x.Config.PageSize}

	var stats ExportStats
	props, err := site.ListingProps(ctx)
	if err != nil {
		return stats, err
	}
	first := props.PostsPagination

	home := ""
	if first.HasMore() {
		home = StaticMoreURL(1)
	}
	if err := RenderFile(ctx, x.path("index.html"), x.Views.Home(first, home)); err != nil {
		return stats, err
	}

	pager := NewPaginator(src, first)
	for n := 1; ; n++ {
		fetched, err := pager.LoadMore(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			return stats, err
		}
		next := ""
		if fetched.HasMore() {
			next = StaticMoreURL(n + 1)
		}
		if err := RenderFile(ctx, x.path("posts", "more", strconv.Itoa(n), "index.html"), x.Views.PostList(fetched.Results, next)); err != nil {
			return stats, err
		}
		stats.MorePages++
	}
	posts := pager.State().Results
	logger.Infof("listing: %d posts on %d pages", len(posts), stats.MorePages+1)

	rendered, postErrs := x.exportPosts(ctx, site, posts, logger)
	stats.Posts = rendered
	stats.Failed = len(postErrs)

	if err := RenderFile(ctx, x.path("404.html"), x.Views.NotFound()); err != nil {
		return stats, err
	}
	if err := x.writeFeeds(posts); err != nil {
		return stats, err
	}
	if err := x.copyEmbedded(); err != nil {
		return stats, err
	}
	return stats, errors.Join(postErrs...)
}

// exportPosts renders each distinct uid of posts once and returns how many
// were written.
func (x *Exporter) exportPosts(ctx context.Context, site *Site, posts []ListItem, logger *log.Logger) (int, []error) {
	workers := x.Workers
	if workers <= 0 {
		workers = 4
	}
	var fetcher *BannerFetcher
	if x.Banners {
		fetcher = &BannerFetcher{Client: x.HTTPClient, PublicDir: x.path("public")}
	}

	var (
		mu       sync.Mutex
		errs     []error
		rendered int
	)
	fail := func(err error) {
		logger.Errorf("%v", err)
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	seen := make(map[string]bool, len(posts))
	for _, item := range posts {
		if item.UID == "" || seen[item.UID] {
			continue
		}
		seen[item.UID] = true
		uid := item.UID
		if !safePathSegment(uid) {
			fail(fmt.Errorf("post %q: uid is not a valid path segment", uid))
			continue
		}
		g.Go(func() error {
			props, err := site.DetailProps(gctx, uid)
			if err != nil {
				fail(fmt.Errorf("post %q: %w", uid, err))
				return nil
			}
			post := props.Post
			if fetcher != nil {
				local, err := fetcher.Fetch(gctx, post)
				if err != nil {
					logger.Warnf("post %q: keeping remote banner: %v", uid, err)
				} else if local != "" {
					post.BannerURL = local
				}
			}
			if err := RenderFile(gctx, x.path("post", uid, "index.html"), x.Views.Post(post, false)); err != nil {
				return fmt.Errorf("post %q: %w", uid, err)
			}
			logger.Debugf("post %q written", uid)
			mu.Lock()
			rendered++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return rendered, errs
}

func (x *Exporter) writeFeeds(posts []ListItem) error {
	var feed bytes.Buffer
	if err := WriteRSS(&feed, x.Config, posts); err != nil {
		return err
	}
	var sitemap bytes.Buffer
	if err := WriteSitemap(&sitemap, x.Config.URL, posts); err != nil {
		return err
	}
	files := map[string][]byte{
		"feed.xml":    feed.Bytes(),
		"sitemap.xml": sitemap.Bytes(),
		"robots.txt":  []byte(Robots(x.Config.URL)),
	}
	for name, data := range files {
		if err := os.WriteFile(x.path(name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (x *Exporter) copyEmbedded() error {
	return fs.WalkDir(EmbeddedAssets, "embedded", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := EmbeddedAssets.ReadFile(p)
		if err != nil {
			return err
		}
		dst := x.path("public", filepath.Base(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

func safePathSegment(s string) bool {
	return s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func (x *Exporter) path(elem ...string) string {
	return filepath.Join(append([]string{x.OutDir}, elem...)...)
}

// pacedSource waits on a rate limiter before every call to src.
type pacedSource struct {
	src cms.Source
	lim *rate.Limiter
}

func (p *pacedSource) List(ctx context.Context, contentType string, pageSize int) (cms.Page, error) {
	if err := p.lim.Wait(ctx); err != nil {
		return cms.Page{}, err
	}
	return p.src.List(ctx, contentType, pageSize)
}

func (p *pacedSource) GetByUID(ctx context.Context, contentType, uid string) (cms.Document, error) {
	if err := p.lim.Wait(ctx); err != nil {
		return cms.Document{}, err
	}
	return p.src.GetByUID(ctx, contentType, uid)
}

func (p *pacedSource) FetchCursor(ctx context.Context, cursor string) (cms.Page, error) {
	if err := p.lim.Wait(ctx); err != nil {
		return cms.Page{}, err
	}
	return p.src.FetchCursor(ctx, cursor)
}
