package views

import (
	"bytes"
	"fmt"

	"github.com/eringen/spacetraveling"
)

const stylesheet = `body{margin:0;font-family:Inter,system-ui,sans-serif;background:#1a1d23;color:#d7d7d7}
a{color:inherit;text-decoration:none}
.container{max-width:720px;margin:0 auto;padding:0 1rem}
header.site{max-width:720px;margin:0 auto;padding:3rem 1rem 4rem}
header.site a{font-weight:700;font-size:1.5rem;color:#fff}
.posts{list-style:none;padding:0}
.post strong{display:block;font-size:1.75rem;color:#fff}
.info{list-style:none;padding:0;display:flex;gap:1.5rem;font-size:.875rem}
.load-more{margin:2.5rem 0 5rem}
.load-more a{color:#ff57b2;font-weight:600;cursor:pointer}
.load-more a[aria-disabled=true]{opacity:.6;cursor:progress}
.banner{display:block;width:100%;max-height:400px;object-fit:cover}
.post h1{font-size:3rem;color:#fff}
.preview{background:#ff57b2;color:#fff;padding:.5rem 1rem;text-align:center}
.preview a{text-decoration:underline}`

func (v *siteViews) layout(buf *bytes.Buffer, meta spacetraveling.PageMeta, preview bool, jsonLD string, body func(*bytes.Buffer)) {
	fmt.Fprintf(buf, `<!DOCTYPE html><html lang="%s"><head>`, esc(v.loc.Tag.String()))
	buf.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	fmt.Fprintf(buf, `<title>%s</title>`, esc(meta.Title))
	if meta.Description != "" {
		fmt.Fprintf(buf, `<meta name="description" content="%s">`, esc(meta.Description))
		fmt.Fprintf(buf, `<meta property="og:description" content="%s">`, esc(meta.Description))
	}
	fmt.Fprintf(buf, `<meta property="og:title" content="%s">`, esc(meta.Title))
	fmt.Fprintf(buf, `<meta property="og:site_name" content="%s">`, esc(v.cfg.Name))
	if meta.URL != "" {
		fmt.Fprintf(buf, `<link rel="canonical" href="%s"><meta property="og:url" content="%s">`, esc(meta.URL), esc(meta.URL))
	}
	if meta.OGType != "" {
		fmt.Fprintf(buf, `<meta property="og:type" content="%s">`, esc(meta.OGType))
	}
	if meta.Image != "" {
		fmt.Fprintf(buf, `<meta property="og:image" content="%s">`, esc(meta.Image))
	}
	fmt.Fprintf(buf, `<link rel="alternate" type="application/rss+xml" title="%s" href="/feed.xml">`, esc(v.cfg.Name))
	fmt.Fprintf(buf, `<style>%s</style>`, stylesheet)
	if jsonLD != "" {
		// encoding/json escapes <, > and &, so the payload cannot close the tag.
		fmt.Fprintf(buf, `<script type="application/ld+json">%s</script>`, jsonLD)
	}
	buf.WriteString(`<script src="/public/loadmore.js" defer></script></head><body>`)
	if preview {
		fmt.Fprintf(buf, `<div class="preview">%s <a href="/api/exit-preview/">%s</a></div>`,
			esc(v.loc.T("preview.active")), esc(v.loc.T("preview.exit")))
	}
	fmt.Fprintf(buf, `<header class="site"><a href="/">%s</a></header>`, esc(v.cfg.Name))
	body(buf)
	buf.WriteString(`</body></html>`)
}
