package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/cms"
)

// MoreURL is the load-more URL the server answers for cursor, or "" when
// there is no next page.
func MoreURL(cursor string) string {
	if cursor == "" {
		return ""
	}
	return "/posts/more/?cursor=" + url.QueryEscape(cursor)
}

// upstream bounds the CMS calls of one request.
func (a *App) upstream(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), a.Config.RequestTimeout)
}

func (a *App) handleHome(c echo.Context) error {
	ctx, cancel := a.upstream(c)
	defer cancel()
	props, err := a.Site.ListingProps(ctx)
	if err != nil {
		return err
	}
	page := props.PostsPagination
	return Render(c, a.Views.Home(page, MoreURL(page.NextPage)))
}

func (a *App) handleLoadMore(c echo.Context) error {
	if a.loadMoreLimiter != nil && !a.loadMoreLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}
	cursor := c.QueryParam("cursor")

	ctx, cancel := a.upstream(c)
	defer cancel()
	fetched, err := a.Site.LoadMore(ctx, cursor)
	if errors.Is(err, ErrExhausted) {
		return Render(c, a.Views.PostList(nil, ""))
	}
	if errors.Is(err, cms.ErrInvalidCursor) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	}
	var fe *cms.FetchError
	if errors.As(err, &fe) {
		c.Logger().Warnf("load more: %v", err)
		return Render(c, a.Views.LoadMoreFailed(MoreURL(cursor)))
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostList(fetched.Results, MoreURL(fetched.NextPage)))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	ctx, cancel := a.upstream(c)
	defer cancel()
	props, err := a.Site.DetailProps(ctx, slug)
	if errors.Is(err, cms.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(props.Post, IsPreview(c)))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx, cancel := a.upstream(c)
	defer cancel()
	posts, err := a.Site.AllPosts(ctx)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteSitemap(c.Response(), a.Config.URL, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	ctx, cancel := a.upstream(c)
	defer cancel()
	posts, err := a.Site.AllPosts(ctx)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteRSS(c.Response(), a.Config, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, Robots(a.Config.URL))
}

// Robots returns the robots.txt body for a site served at siteURL.
func Robots(siteURL string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\nDisallow: /posts/more/\n\nSitemap: %s/sitemap.xml\n",
		strings.TrimSuffix(siteURL, "/"))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
