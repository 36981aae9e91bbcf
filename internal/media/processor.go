// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/packstudio/internal/model"
)

// processed is an image ready to be stored.
type processed struct {
	data     []byte
	mimeType string
	ext      string
	width    int
	height   int
}

// processImage normalizes an uploaded image: EXIF orientation is applied,
// images larger than maxDim on either side are scaled down and the result
// is re-encoded without metadata. WebP is re-encoded as JPEG. GIFs are kept
// byte for byte so animations survive.
func processImage(data []byte, maxDim, quality int) (*processed, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedType
	}

	if format == "gif" {
		cfg, err := gif.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding gif: %w", err)
		}
		return &processed{data: data, mimeType: model.MimeTypeGIF, ext: ".gif", width: cfg.Width, height: cfg.Height}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if maxDim > 0 {
		if b := img.Bounds(); b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	out := &processed{width: img.Bounds().Dx(), height: img.Bounds().Dy()}
	switch format {
	case "png":
		err = png.Encode(&buf, img)
		out.mimeType, out.ext = model.MimeTypePNG, ".png"
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
		out.mimeType, out.ext = model.MimeTypeJPEG, ".jpg"
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	out.data = buf.Bytes()
	return out, nil
}

// detectFormat sniffs the image format. TIFF is rejected (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation encoded in an EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
