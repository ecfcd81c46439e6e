// Package richtext models CMS structured text and renders it to HTML. Every
// piece of text is escaped; markup sent by the CMS is never written through
// as-is.
package richtext

import (
	"bytes"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Fragment types.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Fragment is one block of structured text: a paragraph, heading, list
// item, image or embed.
type Fragment struct {
	Type       string      `json:"type" yaml:"type"`
	Text       string      `json:"text,omitempty" yaml:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty" yaml:"spans,omitempty"`
	URL        string      `json:"url,omitempty" yaml:"url,omitempty"`
	Alt        string      `json:"alt,omitempty" yaml:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	OEmbed     *OEmbed     `json:"oembed,omitempty" yaml:"oembed,omitempty"`
}

// Span marks a range of a fragment's text. Start and End are UTF-16 offsets,
// matching what the CMS emits.
type Span struct {
	Start int      `json:"start" yaml:"start"`
	End   int      `json:"end" yaml:"end"`
	Type  string   `json:"type" yaml:"type"`
	Data  SpanData `json:"data,omitempty" yaml:"data,omitempty"`
}

// SpanData carries hyperlink and label attributes.
type SpanData struct {
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Dimensions of an image fragment.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// OEmbed is the subset of an embed fragment that is rendered. The provider
// HTML is kept for completeness but never emitted.
type OEmbed struct {
	HTML     string `json:"html,omitempty" yaml:"html,omitempty"`
	EmbedURL string `json:"embed_url,omitempty" yaml:"embed_url,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Render writes the HTML representation of frags to buf.
func Render(buf *bytes.Buffer, frags []Fragment) {
	imageCount := 0
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, f := range frags {
		switch f.Type {
		case TypeListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(f.Text, f.Spans))
			buf.WriteString("</li>")
			continue
		case TypeOListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatInline(f.Text, f.Spans))
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch {
		case f.Type == TypeImage:
			writeImage(buf, f, &imageCount)
		case f.Type == TypeEmbed:
			writeEmbed(buf, f)
		case f.Type == TypePreformatted:
			buf.WriteString("<pre class=\"code-block\"><code>")
			buf.WriteString(html.EscapeString(f.Text))
			buf.WriteString("</code></pre>")
		case headingLevel(f.Type) > 0:
			tag := "h" + strconv.Itoa(headingLevel(f.Type))
			buf.WriteString("<" + tag + ">")
			buf.WriteString(FormatInline(f.Text, f.Spans))
			buf.WriteString("</" + tag + ">")
		default:
			// Unknown types degrade to a paragraph.
			buf.WriteString("<p>")
			buf.WriteString(FormatInline(f.Text, f.Spans))
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
}

func headingLevel(t string) int {
	if len(t) != len("heading1") || !strings.HasPrefix(t, "heading") {
		return 0
	}
	n := int(t[len(t)-1] - '0')
	if n < 1 || n > 6 {
		return 0
	}
	return n
}

func writeImage(buf *bytes.Buffer, f Fragment, imageCount *int) {
	src := SafeURL(f.URL)
	if src == "" {
		return
	}
	*imageCount++
	loadAttr := `loading="lazy"`
	if *imageCount == 1 {
		loadAttr = `fetchpriority="high"`
	}
	buf.WriteString(`<img ` + loadAttr)
	if f.Dimensions != nil && f.Dimensions.Width > 0 && f.Dimensions.Height > 0 {
		buf.WriteString(` width="` + strconv.Itoa(f.Dimensions.Width) + `" height="` + strconv.Itoa(f.Dimensions.Height) + `"`)
	}
	buf.WriteString(` alt="` + html.EscapeString(f.Alt) + `" src="` + src + `" decoding="async"/>`)
}

// writeEmbed renders an embed as a plain link to its source. Provider HTML
// is untrusted and dropped.
func writeEmbed(buf *bytes.Buffer, f Fragment) {
	if f.OEmbed == nil {
		return
	}
	href := SafeURL(f.OEmbed.EmbedURL)
	if href == "" {
		return
	}
	label := f.OEmbed.Title
	if label == "" {
		label = f.OEmbed.EmbedURL
	}
	buf.WriteString(`<div class="embed"><a href="` + href + `" target="_blank" rel="noopener noreferrer">`)
	buf.WriteString(html.EscapeString(label))
	buf.WriteString(`</a></div>`)
}

// FormatInline escapes text and wraps the ranges covered by spans in the
// matching inline tags. Overlapping spans are closed and reopened at every
// boundary so the output is always well nested.
func FormatInline(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	if len(spans) == 0 {
		return escapeText(text)
	}

	bounds := map[int]struct{}{0: {}, len(units): {}}
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(units) || s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
		bounds[s.Start] = struct{}{}
		bounds[s.End] = struct{}{}
	}
	// Longer spans open first so they wrap the shorter ones.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	points := make([]int, 0, len(bounds))
	for p := range bounds {
		points = append(points, p)
	}
	sort.Ints(points)

	var b strings.Builder
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		segment := escapeText(string(utf16.Decode(units[from:to])))
		var closers []string
		for _, s := range valid {
			if s.Start <= from && s.End >= to {
				openTag, closeTag := spanTags(s)
				if openTag == "" {
					continue
				}
				b.WriteString(openTag)
				closers = append(closers, closeTag)
			}
		}
		b.WriteString(segment)
		for j := len(closers) - 1; j >= 0; j-- {
			b.WriteString(closers[j])
		}
	}
	return b.String()
}

func spanTags(s Span) (string, string) {
	switch s.Type {
	case SpanStrong:
		return "<strong>", "</strong>"
	case SpanEm:
		return "<em>", "</em>"
	case SpanHyperlink:
		href := SafeURL(s.Data.URL)
		if href == "" {
			return "", ""
		}
		attrs := `class="underline decoration-2 underline-offset-4"`
		if s.Data.Target == "_blank" {
			attrs += ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `" ` + attrs + `>`, "</a>"
	case SpanLabel:
		if s.Data.Label == "" {
			return "", ""
		}
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`, "</span>"
	default:
		return "", ""
	}
}

func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
}

// PlainText joins the text of every fragment with a space.
func PlainText(frags []Fragment) string {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// SafeURL validates and escapes a URL for use in an HTML attribute. It
// returns "" for anything other than relative, fragment, http(s), mailto
// and tel targets.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if (strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//")) || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
