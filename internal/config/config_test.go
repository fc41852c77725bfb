package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "bg.png")
	require.NoError(t, os.WriteFile(bg, []byte("x"), 0o644))

	test := []struct {
		name string
		file string // "" means no file
		want Config
	}{
		{"missing file", "", Default()},
		{"malformed", "{not json", Default()},
		{"valid", `{"backgroundImage": "` + filepath.ToSlash(bg) + `", "backgroundOpacity": 0.5}`, Config{BackgroundImage: filepath.ToSlash(bg), BackgroundOpacity: 0.5}},
		{"missing background reset", `{"backgroundImage": "/no/such/file.png", "backgroundOpacity": 0.8}`, Config{BackgroundOpacity: 0.8}},
		{"wrong types", `{"backgroundImage": 3, "backgroundOpacity": "high"}`, Default()},
		{"opacity out of range", `{"backgroundOpacity": 5}`, Default()},
		{"partial", `{"backgroundOpacity": 1}`, Config{BackgroundOpacity: 1}},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if tt.file != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}
			s := New(path)
			got := s.Load()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, got, s.Get())
		})
	}
}

func TestSaveKeepsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"theme": "dark", "backgroundOpacity": 0.4}`), 0o644))

	s := New(path)
	s.Load()
	v, ok := s.Extra("theme")
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(v))

	got := s.Update(func(c *Config) { c.BackgroundOpacity = 0.7 })
	assert.Equal(t, 0.7, got.BackgroundOpacity)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, map[string]any{
		"theme":             "dark",
		"backgroundImage":   "",
		"backgroundOpacity": 0.7,
	}, doc)

	assert.Equal(t, got, New(path).Load())
}

func TestSaveFailureSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// the parent of the config path is a regular file.
	s := New(filepath.Join(blocker, "config.json"))
	assert.NotPanics(t, func() {
		s.Update(func(c *Config) { c.BackgroundImage = "x" })
	})
	assert.Equal(t, "x", s.Get().BackgroundImage)
}

func TestUpdateConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Update(func(c *Config) { c.BackgroundImage = "bg.png" })
		}()
		go func() {
			defer wg.Done()
			s.Update(func(c *Config) { c.BackgroundOpacity = 0.5 + float64(i%2)*0.25 })
		}()
	}
	wg.Wait()
	s.Update(func(c *Config) { c.BackgroundOpacity = 0.3 })

	want := Config{BackgroundImage: "bg.png", BackgroundOpacity: 0.3}
	assert.Equal(t, want, s.Get())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, map[string]any{"backgroundImage": "bg.png", "backgroundOpacity": 0.3}, doc)
}

func TestSetClampsOpacity(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "config.json"))
	s.Set(Config{BackgroundOpacity: 0})
	assert.Equal(t, MinOpacity, s.Get().BackgroundOpacity)
	s.Set(Config{BackgroundOpacity: 3})
	assert.Equal(t, MaxOpacity, s.Get().BackgroundOpacity)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", DefaultPath("wzdesk"))

	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	assert.Equal(t, filepath.Join("/tmp/xdg", "wzdesk", "config.json"), DefaultPath("wzdesk"))
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path)
	s.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(c Config) { changed <- c })
	}()

	// an external writer, retried until the watcher is registered.
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(path, []byte(`{"backgroundOpacity": 0.9}`), 0o644))
		select {
		case c := <-changed:
			assert.Equal(t, 0.9, c.BackgroundOpacity)
			cancel()
			assert.NoError(t, <-done)
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
