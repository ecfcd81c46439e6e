package views

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/richtext"
)

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg spacetraveling.SiteConfig) string {
	data := map[string]interface{}{
		"@context":   "https://schema.org",
		"@type":      "WebSite",
		"name":       cfg.Name,
		"url":        spacetraveling.BuildURL(cfg.URL),
		"inLanguage": cfg.Locale,
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg spacetraveling.SiteConfig, post spacetraveling.PostDetail) string {
	postURL := spacetraveling.BuildURL(cfg.URL, "post", post.UID)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": postDescription(post),
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if body := postText(post); body != "" {
		data["articleBody"] = body
	}
	if post.ReadingMinutes > 0 {
		data["timeRequired"] = "PT" + strconv.Itoa(post.ReadingMinutes) + "M"
	}
	if t, ok := spacetraveling.ParsePublicationDate(post.FirstPublicationDate); ok {
		data["datePublished"] = t.Format(time.RFC3339)
	}
	if post.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author,
		}
	}
	if richtext.SafeURL(post.BannerURL) != "" {
		data["image"] = post.BannerURL
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

const descriptionRunes = 160

// postText is the plain text of every content block of post.
func postText(post spacetraveling.PostDetail) string {
	parts := make([]string, 0, 2*len(post.Content))
	for _, block := range post.Content {
		if h := strings.TrimSpace(block.Heading); h != "" {
			parts = append(parts, h)
		}
		if t := richtext.PlainText(block.Body); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// postDescription is the subtitle, or the start of the body when a post has
// none.
func postDescription(post spacetraveling.PostDetail) string {
	if post.Subtitle != "" {
		return post.Subtitle
	}
	text := []rune(postText(post))
	if len(text) <= descriptionRunes {
		return string(text)
	}
	return strings.TrimSpace(string(text[:descriptionRunes])) + "..."
}
