// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("PACKS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: PACKS_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, "packstudio-test:", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCacheFromURL: %v", err)
	}
	defer func() { _ = c.Close() }()
	ctx := context.Background()
	_ = c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete err = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCacheFromURL(url, "packstudio-test:", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisCacheFromURL: %v", err)
	}
	defer func() { _ = c.Close() }()
	ctx := context.Background()
	_ = c.Clear(ctx)

	_ = c.Set(ctx, "page:home", []byte("1"), 0)
	_ = c.Set(ctx, "other", []byte("2"), 0)

	if err := c.DeleteByPrefix(ctx, "page:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if _, err := c.Get(ctx, "page:home"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("page:home still cached")
	}
	if _, err := c.Get(ctx, "other"); err != nil {
		t.Errorf("other removed: %v", err)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestRedisOptions_Defaults(t *testing.T) {
	got := RedisOptions{URL: "redis://localhost:6379/0", Prefix: "studio:"}.withDefaults()
	if got.Prefix != "studio:" {
		t.Errorf("Prefix = %q, want the configured one", got.Prefix)
	}
	if got.DefaultTTL != time.Hour || got.PoolSize != 10 || got.ConnectTimeout != 5*time.Second {
		t.Errorf("defaults not applied: %+v", got)
	}

	if p := (RedisOptions{}).withDefaults().Prefix; p != "packstudio:" {
		t.Errorf("default Prefix = %q", p)
	}
}
