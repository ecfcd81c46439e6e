package spacetraveling

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessBanner(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide image is downscaled", 1600, 400, 800, 200},
		{"exact max width is kept", 800, 300, 800, 300},
		{"small image is kept", 320, 240, 320, 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, w, h, err := ProcessBanner(bytes.NewReader(encodePNG(t, tt.w, tt.h)))
			if err != nil {
				t.Fatalf("ProcessBanner failed: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not a jpeg: %v", err)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("jpeg size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessBannerRejectsGarbage(t *testing.T) {
	if _, _, _, err := ProcessBanner(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected an error for non-image input")
	}
}

func TestBannerFetcher(t *testing.T) {
	img := encodePNG(t, 1000, 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(img)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := &BannerFetcher{Client: srv.Client(), PublicDir: dir}

	got, err := f.Fetch(context.Background(), PostDetail{UID: "Hello World", BannerURL: srv.URL + "/ok.png"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != "/public/banners/hello-world.jpg" {
		t.Errorf("Fetch = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "banners", "hello-world.jpg")); err != nil {
		t.Errorf("banner not written: %v", err)
	}

	if _, err := f.Fetch(context.Background(), PostDetail{UID: "x", BannerURL: srv.URL + "/missing.png"}); err == nil {
		t.Error("expected an error for a missing banner")
	}

	got, err = f.Fetch(context.Background(), PostDetail{UID: "x"})
	if err != nil || got != "" {
		t.Errorf("Fetch without banner = %q, %v", got, err)
	}
}
