package spacetraveling

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/eringen/spacetraveling/cms"
	"github.com/eringen/spacetraveling/richtext"
)

func TestProjectListingScenario(t *testing.T) {
	raw := cms.Page{
		NextPage: "/api?cursor=2",
		Results: []cms.Document{{
			UID:                  "a",
			FirstPublicationDate: "2021-03-25",
			Data:                 cms.Data{Title: "T", Subtitle: "S", Author: "A"},
		}},
	}
	got := ProjectListing(raw)
	want := ListingPage{
		NextPage: "/api?cursor=2",
		Results: []ListItem{{
			UID:                  "a",
			FirstPublicationDate: "2021-03-25",
			Title:                "T",
			Subtitle:             "S",
			Author:               "A",
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProjectListing = %+v, want %+v", got, want)
	}
}

func TestProjectListingPreservesLengthAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		raw := cms.Page{}
		for i := 0; i < n; i++ {
			raw.Results = append(raw.Results, testDoc(string(rune('a'+i))))
		}
		got := ProjectListing(raw)
		if len(got.Results) != n {
			t.Fatalf("len(Results) = %d, want %d", len(got.Results), n)
		}
		for i := range got.Results {
			if got.Results[i].UID != raw.Results[i].UID {
				t.Errorf("Results[%d].UID = %q, want %q", i, got.Results[i].UID, raw.Results[i].UID)
			}
		}
		if got.HasMore() {
			t.Errorf("HasMore should be false without a cursor")
		}
	}
}

func TestProjectListingMissingFieldsAreEmpty(t *testing.T) {
	got := ProjectListing(cms.Page{Results: []cms.Document{{UID: "x"}}})
	item := got.Results[0]
	if item.Title != "" || item.Subtitle != "" || item.Author != "" || item.FirstPublicationDate != "" {
		t.Errorf("expected empty strings, got %+v", item)
	}
}

func TestProjectDetailScenario(t *testing.T) {
	doc := cms.Document{
		UID:                  "hello",
		FirstPublicationDate: "2021-03-25T19:25:28+0000",
		Data: cms.Data{
			Title:    "T",
			Subtitle: "S",
			Author:   "A",
			Banner:   &cms.Image{URL: "https://images.prismic.io/banner.png"},
			Content: []cms.Block{{
				Heading: "Intro",
				Body:    []richtext.Fragment{{Type: richtext.TypeParagraph, Text: "Hello world test"}},
			}},
		},
	}
	got, err := ProjectDetail(doc)
	if err != nil {
		t.Fatalf("ProjectDetail failed: %v", err)
	}
	if got.ReadingMinutes != 1 {
		t.Errorf("ReadingMinutes = %d, want 1", got.ReadingMinutes)
	}
	if CountWords(got.Content) != 4 {
		t.Errorf("CountWords = %d, want 4", CountWords(got.Content))
	}
	if got.BannerURL != "https://images.prismic.io/banner.png" {
		t.Errorf("BannerURL = %q", got.BannerURL)
	}
	if got.Title != "T" || got.Subtitle != "S" || got.Author != "A" || got.UID != "hello" {
		t.Errorf("fields not remapped: %+v", got)
	}
	if got.FirstPublicationDate != doc.FirstPublicationDate {
		t.Errorf("FirstPublicationDate = %q, want %q", got.FirstPublicationDate, doc.FirstPublicationDate)
	}
	if len(got.Content) != 1 || got.Content[0].Heading != "Intro" || got.Content[0].Body[0].Text != "Hello world test" {
		t.Errorf("Content = %+v", got.Content)
	}
}

func TestProjectDetailMissingStructuredFields(t *testing.T) {
	tests := []struct {
		name  string
		data  cms.Data
		field string
	}{
		{"no banner", cms.Data{Content: []cms.Block{}}, "banner"},
		{"no content", cms.Data{Banner: &cms.Image{URL: "x"}}, "content"},
	}
	for _, tt := range tests {
		_, err := ProjectDetail(cms.Document{UID: "p", Data: tt.data})
		var me *cms.MalformedRecordError
		if !errors.As(err, &me) {
			t.Fatalf("%s: expected MalformedRecordError, got %v", tt.name, err)
		}
		if me.Field != tt.field || me.UID != "p" {
			t.Errorf("%s: got %+v", tt.name, me)
		}
	}
}

func TestProjectDetailEmptyContentIsZeroMinutes(t *testing.T) {
	got, err := ProjectDetail(cms.Document{Data: cms.Data{Banner: &cms.Image{}, Content: []cms.Block{}}})
	if err != nil {
		t.Fatalf("ProjectDetail failed: %v", err)
	}
	if got.ReadingMinutes != 0 {
		t.Errorf("ReadingMinutes = %d, want 0", got.ReadingMinutes)
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{199, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{401, 3},
	}
	for _, tt := range tests {
		if got := ReadingTime(tt.words); got != tt.want {
			t.Errorf("ReadingTime(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestReadingTimeMonotonic(t *testing.T) {
	prev := 0
	for words := 0; words <= 1000; words++ {
		got := ReadingTime(words)
		if got < prev {
			t.Fatalf("ReadingTime(%d) = %d < ReadingTime(%d) = %d", words, got, words-1, prev)
		}
		prev = got
	}
}

func TestCountWordsSplitsOnWhitespace(t *testing.T) {
	blocks := []ContentBlock{
		{Heading: "  Two   words ", Body: []richtext.Fragment{{Text: "a\tb\nc"}, {Text: ""}, {Text: "— ."}}},
		{Heading: "", Body: nil},
	}
	if got := CountWords(blocks); got != 7 {
		t.Errorf("CountWords = %d, want 7", got)
	}
}

func TestCountWordsLongPost(t *testing.T) {
	body := strings.Repeat("word ", 201)
	blocks := []ContentBlock{{Body: []richtext.Fragment{{Text: body}}}}
	if got := ReadingTime(CountWords(blocks)); got != 2 {
		t.Errorf("ReadingTime = %d, want 2", got)
	}
}
