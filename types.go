package spacetraveling

import "github.com/eringen/spacetraveling/richtext"

// ListItem is the display shape of a post on the home listing.
type ListItem struct {
	UID                  string
	FirstPublicationDate string // as sent by the CMS, "" when unpublished
	Title                string
	Subtitle             string
	Author               string
}

// ListingPage is the listing accumulated so far plus the cursor for the
// next page. NextPage is "" once every page has been loaded.
type ListingPage struct {
	NextPage string
	Results  []ListItem
}

// HasMore reports whether another page can be loaded.
func (p ListingPage) HasMore() bool {
	return p.NextPage != ""
}

// PostDetail is the display shape of a single post.
type PostDetail struct {
	UID                  string
	Title                string
	Subtitle             string
	Author               string
	BannerURL            string
	FirstPublicationDate string
	Content              []ContentBlock
	ReadingMinutes       int
}

// ContentBlock is one section of a post: a heading and its rich-text body.
type ContentBlock struct {
	Heading string
	Body    []richtext.Fragment
}

// ListingProps is what the home page is generated from.
type ListingProps struct {
	PostsPagination ListingPage
}

// DetailProps is what a post page is generated from.
type DetailProps struct {
	Post PostDetail
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
