package spacetraveling

import (
	"strings"

	"github.com/eringen/spacetraveling/cms"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// ProjectListing maps a raw result page onto the listing display shape.
// Order and length are preserved; absent text fields become "".
func ProjectListing(page cms.Page) ListingPage {
	out := ListingPage{
		NextPage: page.NextPage,
		Results:  make([]ListItem, 0, len(page.Results)),
	}
	for _, doc := range page.Results {
		out.Results = append(out.Results, ListItem{
			UID:                  doc.UID,
			FirstPublicationDate: doc.FirstPublicationDate,
			Title:                doc.Data.Title,
			Subtitle:             doc.Data.Subtitle,
			Author:               doc.Data.Author,
		})
	}
	return out
}

// ProjectDetail maps a raw document onto the post display shape. A
// document without a banner or content is rejected whole.
func ProjectDetail(doc cms.Document) (PostDetail, error) {
	if doc.Data.Banner == nil {
		return PostDetail{}, &cms.MalformedRecordError{UID: doc.UID, Field: "banner"}
	}
	if doc.Data.Content == nil {
		return PostDetail{}, &cms.MalformedRecordError{UID: doc.UID, Field: "content"}
	}
	blocks := make([]ContentBlock, 0, len(doc.Data.Content))
	for _, b := range doc.Data.Content {
		blocks = append(blocks, ContentBlock{Heading: b.Heading, Body: b.Body})
	}
	return PostDetail{
		UID:                  doc.UID,
		Title:                doc.Data.Title,
		Subtitle:             doc.Data.Subtitle,
		Author:               doc.Data.Author,
		BannerURL:            doc.Data.Banner.URL,
		FirstPublicationDate: doc.FirstPublicationDate,
		Content:              blocks,
		ReadingMinutes:       ReadingTime(CountWords(blocks)),
	}, nil
}

// CountWords counts whitespace-separated words across every heading and
// body fragment.
func CountWords(blocks []ContentBlock) int {
	total := 0
	for _, b := range blocks {
		total += len(strings.Fields(b.Heading))
		for _, f := range b.Body {
			total += len(strings.Fields(f.Text))
		}
	}
	return total
}

// ReadingTime estimates minutes to read words at WordsPerMinute, rounded up.
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
