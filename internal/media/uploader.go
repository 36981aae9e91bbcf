// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores uploaded images and hands back the public URL that
// image fields keep verbatim.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/packstudio/internal/util"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("upload too large")

	// ErrUnsupportedType is returned for files that are not JPEG, PNG, GIF or WebP images.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// Defaults
const (
	DefaultMaxSize      = 20 * 1024 * 1024
	DefaultMaxDimension = 2560
	DefaultQuality      = 90
)

// Options configures an Uploader.
type Options struct {
	// Dir is the directory files are written to.
	Dir string
	// BaseURL is the public URL Dir is served under, e.g. https://cdn.example.com/uploads.
	BaseURL string
	// MaxSize is the upload limit in bytes.
	MaxSize int64
	// MaxDimension scales larger images down; 0 disables scaling.
	MaxDimension int
	// Quality is the JPEG encoding quality.
	Quality int
}

// Uploader stores images on the local filesystem.
type Uploader struct {
	opts   Options
	logger *slog.Logger
}

// NewUploader creates an uploader, filling unset options with defaults.
func NewUploader(opts Options, logger *slog.Logger) *Uploader {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{opts: opts, logger: logger}
}

// Dir returns the storage directory.
func (u *Uploader) Dir() string {
	return u.opts.Dir
}

// Upload processes and stores one image and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.opts.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > u.opts.MaxSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, u.opts.MaxSize)
	}

	img, err := processImage(data, u.opts.MaxDimension, u.opts.Quality)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	name := util.UploadFilename(filename, img.ext)

	dir, err := util.SafeJoinPath(u.opts.Dir, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), img.data, 0o644); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	url := u.opts.BaseURL + "/" + path.Join(id, name)
	u.logger.Info("image uploaded", "url", url, "mime_type", img.mimeType,
		"width", img.width, "height", img.height, "size", len(img.data))
	return url, nil
}
