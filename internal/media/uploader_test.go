// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/packstudio/internal/testutil"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestUploader(t *testing.T, opts Options) *Uploader {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://cdn.example.com/uploads/"
	}
	return NewUploader(opts, testutil.TestLoggerSilent())
}

func storedPath(t *testing.T, u *Uploader, url string) string {
	t.Helper()
	rel := strings.TrimPrefix(url, "https://cdn.example.com/uploads/")
	if rel == url {
		t.Fatalf("url %q not under base URL", url)
	}
	return filepath.Join(u.Dir(), filepath.FromSlash(rel))
}

func TestUpload_PNG(t *testing.T) {
	u := newTestUploader(t, Options{})

	url, err := u.Upload(context.Background(), bytes.NewReader(pngBytes(t, 20, 10)), "Neon Portrait.png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(url, "/neon-portrait.png") {
		t.Errorf("url = %q, want slugified filename", url)
	}

	f, err := os.Open(storedPath(t, u, url))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	defer func() { _ = f.Close() }()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "png" || cfg.Width != 20 || cfg.Height != 10 {
		t.Errorf("stored %s %dx%d, want png 20x10", format, cfg.Width, cfg.Height)
	}
}

func TestUpload_JPEGExtension(t *testing.T) {
	u := newTestUploader(t, Options{})

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(8, 8), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	url, err := u.Upload(context.Background(), &buf, "capa.JPEG")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(url, "/capa.jpg") {
		t.Errorf("url = %q, want .jpg extension", url)
	}
}

func TestUpload_ScalesDown(t *testing.T) {
	u := newTestUploader(t, Options{MaxDimension: 16})

	url, err := u.Upload(context.Background(), bytes.NewReader(pngBytes(t, 64, 32)), "big.png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	data, err := os.ReadFile(storedPath(t, u, url))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("stored %dx%d, want 16x8", cfg.Width, cfg.Height)
	}
}

func TestUpload_Rejects(t *testing.T) {
	u := newTestUploader(t, Options{MaxSize: 1024})

	_, err := u.Upload(context.Background(), strings.NewReader("just some text"), "notes.png")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("text upload err = %v, want ErrUnsupportedType", err)
	}

	_, err = u.Upload(context.Background(), bytes.NewReader(make([]byte, 2048)), "huge.png")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("large upload err = %v, want ErrTooLarge", err)
	}

	entries, _ := os.ReadDir(u.Dir())
	if len(entries) != 0 {
		t.Errorf("rejected uploads left %d entries on disk", len(entries))
	}
}

func TestUpload_CancelledContext(t *testing.T) {
	u := newTestUploader(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := u.Upload(ctx, bytes.NewReader(pngBytes(t, 4, 4)), "x.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestApplyOrientation(t *testing.T) {
	img := testImage(4, 2)

	tests := []struct {
		orientation int
		w, h        int
	}{
		{1, 4, 2},
		{3, 4, 2},
		{6, 2, 4},
		{8, 2, 4},
		{99, 4, 2},
	}
	for _, tt := range tests {
		b := applyOrientation(img, tt.orientation).Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("orientation %d: %dx%d, want %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	if got := detectFormat([]byte("II*\x00tiff-ish")); got != "" {
		t.Errorf("tiff detected as %q, want rejection", got)
	}
	if got := detectFormat([]byte("GIF89a......")); got != "gif" {
		t.Errorf("gif detected as %q", got)
	}
}
