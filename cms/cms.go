// Package cms defines the contract between the site and its headless
// content source: raw document types as the CMS delivers them, the Source
// interface the page generators consume, and the errors a source may return.
package cms

import (
	"context"

	"github.com/eringen/spacetraveling/richtext"
)

// Source is a content repository that pages through documents of one type
// and resolves single documents by UID.
type Source interface {
	// List returns the first page of documents of contentType.
	List(ctx context.Context, contentType string, pageSize int) (Page, error)
	// GetByUID returns the document with the given UID, or ErrNotFound.
	GetByUID(ctx context.Context, contentType, uid string) (Document, error)
	// FetchCursor follows a NextPage cursor returned by List or FetchCursor.
	FetchCursor(ctx context.Context, cursor string) (Page, error)
}

// Resolver is implemented by sources that can look a document up by its
// CMS id. Preview links identify documents this way.
type Resolver interface {
	GetByID(ctx context.Context, id string) (Document, error)
}

// Page is one page of search results.
type Page struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	NextPage   string     `json:"next_page"`
	Results    []Document `json:"results"`
}

// Document is a raw CMS record.
type Document struct {
	ID                   string `json:"id" yaml:"id"`
	UID                  string `json:"uid" yaml:"uid"`
	Type                 string `json:"type" yaml:"type"`
	FirstPublicationDate string `json:"first_publication_date" yaml:"first_publication_date"`
	LastPublicationDate  string `json:"last_publication_date" yaml:"last_publication_date"`
	Data                 Data   `json:"data" yaml:"data"`
}

// Data holds the custom fields of a post document. Banner and Content are
// nil when the CMS omits them; an empty content group stays non-nil.
type Data struct {
	Title    string  `json:"title" yaml:"title"`
	Subtitle string  `json:"subtitle" yaml:"subtitle"`
	Author   string  `json:"author" yaml:"author"`
	Banner   *Image  `json:"banner,omitempty" yaml:"banner,omitempty"`
	Content  []Block `json:"content" yaml:"content"`
}

// Image is an image field.
type Image struct {
	URL        string               `json:"url" yaml:"url"`
	Alt        string               `json:"alt,omitempty" yaml:"alt,omitempty"`
	Dimensions *richtext.Dimensions `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// Block is one entry of the content group: a heading and its body.
type Block struct {
	Heading string              `json:"heading" yaml:"heading"`
	Body    []richtext.Fragment `json:"body" yaml:"body"`
}

type refKey struct{}

// WithRef returns a context that asks sources to read content at ref
// instead of the published master ref. Used for previews.
func WithRef(ctx context.Context, ref string) context.Context {
	if ref == "" {
		return ctx
	}
	return context.WithValue(ctx, refKey{}, ref)
}

// RefFromContext returns the ref stored by WithRef, if any.
func RefFromContext(ctx context.Context) string {
	ref, _ := ctx.Value(refKey{}).(string)
	return ref
}
