// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared by the handlers and the media uploader.
package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug         = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts s to a lowercase ASCII slug: accents are stripped,
// whitespace becomes hyphens and anything else outside [a-z0-9-] is dropped.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.Join(strings.Fields(result), "-")
	result = nonSlug.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// UploadFilename turns a client-supplied filename into a safe stored name:
// directory parts are dropped, the stem is slugified and the extension is
// lowercased. ext overrides the extension when non-empty.
func UploadFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	origExt := filepath.Ext(base)
	stem := Slugify(strings.TrimSuffix(base, origExt))
	if stem == "" {
		stem = "upload"
	}
	if ext == "" {
		ext = strings.ToLower(origExt)
	}
	return stem + ext
}

// SafeJoinPath joins components onto base and fails if the result escapes base.
func SafeJoinPath(base string, components ...string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	target := filepath.Join(append([]string{absBase}, components...)...)
	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", target, absBase)
	}
	return target, nil
}
