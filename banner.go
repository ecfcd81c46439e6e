package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const (
	maxBannerWidth = 800
	jpegQuality    = 80
	maxBannerSize  = 10 << 20 // 10MB
	bannersSubdir  = "banners"
)

// ProcessBanner decodes an image from src, downscales it to maxBannerWidth
// if it is wider, and encodes it as JPEG.
func ProcessBanner(src io.Reader) (data []byte, width, height int, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxBannerWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// BannerFetcher downloads post banners into a public directory so an
// exported site does not hotlink the CMS image CDN.
type BannerFetcher struct {
	Client    *http.Client
	PublicDir string // e.g. <out>/public
}

// Fetch downloads post's banner, writes it as public/banners/<slug>.jpg and
// returns the site-relative URL to use instead.
func (f *BannerFetcher) Fetch(ctx context.Context, post PostDetail) (string, error) {
	if post.BannerURL == "" {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.BannerURL, nil)
	if err != nil {
		return "", err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download banner: %s", resp.Status)
	}

	data, _, _, err := ProcessBanner(io.LimitReader(resp.Body, maxBannerSize))
	if err != nil {
		return "", err
	}

	name := Slugify(post.UID)
	if name == "" {
		name = DocumentID("banner", post.UID)
	}
	name += ".jpg"
	dir := filepath.Join(f.PublicDir, bannersSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create banners dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write banner: %w", err)
	}
	return "/public/" + bannersSubdir + "/" + name, nil
}
