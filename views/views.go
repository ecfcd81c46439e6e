// Package views holds the default templates for a spacetraveling site.
package views

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/richtext"
)

var esc = templ.EscapeString[string]

// Default returns the stock templates for cfg's site name, URL and locale.
func Default(cfg spacetraveling.SiteConfig) spacetraveling.ViewFuncs {
	v := &siteViews{cfg: cfg, loc: NewLocale(cfg.Locale)}
	return spacetraveling.ViewFuncs{
		Home:           v.Home,
		PostList:       v.PostList,
		LoadMoreFailed: v.LoadMoreFailed,
		Post:           v.Post,
		NotFound:       v.NotFound,
		ServerError:    v.ServerError,
	}
}

type siteViews struct {
	cfg spacetraveling.SiteConfig
	loc Locale
}

func component(fn func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		fn(&buf)
		_, err := buf.WriteTo(w)
		return err
	})
}

// Home is the listing page with its first posts and the load-more control.
func (v *siteViews) Home(page spacetraveling.ListingPage, moreURL string) templ.Component {
	meta := spacetraveling.PageMeta{
		Title:       v.cfg.Name,
		Description: v.cfg.Description,
		URL:         spacetraveling.BuildURL(v.cfg.URL),
		OGType:      "website",
	}
	return component(func(buf *bytes.Buffer) {
		v.layout(buf, meta, false, WebsiteJsonLD(v.cfg), func(buf *bytes.Buffer) {
			buf.WriteString(`<main class="container posts-page">`)
			if len(page.Results) == 0 {
				fmt.Fprintf(buf, `<p class="empty">%s</p>`, esc(v.loc.T("listing.empty")))
			}
			buf.WriteString(`<ul id="posts" class="posts">`)
			v.writeItems(buf, page.Results)
			buf.WriteString(`</ul>`)
			v.writeControl(buf, moreURL)
			buf.WriteString(`</main>`)
		})
	})
}

// PostList is the fragment answering a load-more request: the new items and
// the control for the page after them.
func (v *siteViews) PostList(items []spacetraveling.ListItem, moreURL string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		buf.WriteString(`<ul data-items>`)
		v.writeItems(buf, items)
		buf.WriteString(`</ul>`)
		v.writeControl(buf, moreURL)
	})
}

// LoadMoreFailed replaces the control after a failed load. Items already
// on the page stay; the retry link re-requests the same page.
func (v *siteViews) LoadMoreFailed(retryURL string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		buf.WriteString(`<ul data-items></ul><div id="load-more" class="load-more">`)
		fmt.Fprintf(buf, `<p role="alert">%s</p>`, esc(v.loc.T("listing.load_failed")))
		fmt.Fprintf(buf, `<a data-load-more href="%s" data-loading="%s">%s</a>`,
			esc(retryURL), esc(v.loc.T("listing.loading")), esc(v.loc.T("listing.retry")))
		buf.WriteString(`</div>`)
	})
}

func (v *siteViews) writeItems(buf *bytes.Buffer, items []spacetraveling.ListItem) {
	for _, p := range items {
		fmt.Fprintf(buf, `<li class="post"><a href="%s">`, esc(spacetraveling.PostPath(p.UID)))
		fmt.Fprintf(buf, `<strong>%s</strong>`, esc(p.Title))
		if p.Subtitle != "" {
			fmt.Fprintf(buf, `<p>%s</p>`, esc(p.Subtitle))
		}
		buf.WriteString(`<ul class="info">`)
		if d := v.loc.FormatDate(p.FirstPublicationDate); d != "" {
			fmt.Fprintf(buf, `<li class="date"><time datetime="%s">%s</time></li>`, esc(p.FirstPublicationDate), esc(d))
		}
		if p.Author != "" {
			fmt.Fprintf(buf, `<li class="author">%s</li>`, esc(p.Author))
		}
		buf.WriteString(`</ul></a></li>`)
	}
}

func (v *siteViews) writeControl(buf *bytes.Buffer, moreURL string) {
	buf.WriteString(`<div id="load-more" class="load-more">`)
	if moreURL != "" {
		fmt.Fprintf(buf, `<a data-load-more href="%s" data-loading="%s">%s</a>`,
			esc(moreURL), esc(v.loc.T("listing.loading")), esc(v.loc.T("listing.load_more")))
	}
	buf.WriteString(`</div>`)
}

// Post is a post page: banner, header with reading time, and the body.
func (v *siteViews) Post(post spacetraveling.PostDetail, preview bool) templ.Component {
	meta := spacetraveling.PageMeta{
		Title:       post.Title + " | " + v.cfg.Name,
		Description: postDescription(post),
		URL:         spacetraveling.BuildURL(v.cfg.URL, "post", post.UID),
		OGType:      "article",
	}
	if richtext.SafeURL(post.BannerURL) != "" {
		meta.Image = post.BannerURL
	}
	return component(func(buf *bytes.Buffer) {
		v.layout(buf, meta, preview, BlogPostingJsonLD(v.cfg, post), func(buf *bytes.Buffer) {
			if src := richtext.SafeURL(post.BannerURL); src != "" {
				fmt.Fprintf(buf, `<img class="banner" src="%s" alt="" fetchpriority="high">`, src)
			}
			buf.WriteString(`<main class="container post">`)
			fmt.Fprintf(buf, `<h1>%s</h1>`, esc(post.Title))
			buf.WriteString(`<ul class="info">`)
			if d := v.loc.FormatDate(post.FirstPublicationDate); d != "" {
				fmt.Fprintf(buf, `<li class="date"><time datetime="%s">%s</time></li>`, esc(post.FirstPublicationDate), esc(d))
			}
			if post.Author != "" {
				fmt.Fprintf(buf, `<li class="author">%s</li>`, esc(post.Author))
			}
			fmt.Fprintf(buf, `<li class="reading-time">%s</li>`, esc(v.loc.T("post.reading_time", post.ReadingMinutes)))
			buf.WriteString(`</ul>`)
			for _, block := range post.Content {
				buf.WriteString(`<section>`)
				if block.Heading != "" {
					fmt.Fprintf(buf, `<h2>%s</h2>`, esc(block.Heading))
				}
				buf.WriteString(`<div class="body">`)
				richtext.Render(buf, block.Body)
				buf.WriteString(`</div></section>`)
			}
			buf.WriteString(`</main>`)
		})
	})
}

// NotFound is the 404 page.
func (v *siteViews) NotFound() templ.Component {
	return v.errorPage("error.not_found", "error.not_found_body")
}

// ServerError is the 5xx page.
func (v *siteViews) ServerError() templ.Component {
	return v.errorPage("error.server", "error.server_body")
}

func (v *siteViews) errorPage(titleKey, bodyKey string) templ.Component {
	title := v.loc.T(titleKey)
	meta := spacetraveling.PageMeta{Title: title + " | " + v.cfg.Name}
	return component(func(buf *bytes.Buffer) {
		v.layout(buf, meta, false, "", func(buf *bytes.Buffer) {
			buf.WriteString(`<main class="container error">`)
			fmt.Fprintf(buf, `<h1>%s</h1><p>%s</p>`, esc(title), esc(v.loc.T(bodyKey)))
			fmt.Fprintf(buf, `<a href="/">%s</a>`, esc(v.loc.T("nav.home")))
			buf.WriteString(`</main>`)
		})
	})
}
