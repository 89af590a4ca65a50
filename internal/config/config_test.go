package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, NewDefaultConfig(), cfg)
	assert.Equal(t, 2*time.Second, cfg.Enhance.FeedbackDelay)
	assert.True(t, cfg.Markdown.Sanitize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	content := `
debug: true
page_url: https://quiz.example.com/items
markdown:
  math: true
enhance:
  feedback_delay: 500ms
  labels:
    copy: 复制
upload:
  max_bytes: 1024
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Markdown.Math)
	assert.True(t, cfg.Markdown.Sanitize)
	assert.Equal(t, 500*time.Millisecond, cfg.Enhance.FeedbackDelay)
	assert.Equal(t, "复制", cfg.Enhance.Labels.Copy)
	assert.Equal(t, "copied", cfg.Enhance.Labels.Copied)
	assert.EqualValues(t, 1024, cfg.Upload.MaxBytes)

	opts, err := cfg.CoreOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Enhance.PageURL)
	assert.Equal(t, "quiz.example.com", opts.Enhance.PageURL.Host)
	assert.True(t, opts.Markdown.Math)
	assert.Equal(t, "复制", opts.Enhance.Labels.Copy)
}

func TestLoadConfigEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))

	t.Setenv("QUIZMARK_DEBUG", "true")
	t.Setenv("QUIZMARK_MARKDOWN_HARD_WRAPS", "true")
	t.Setenv("QUIZMARK_IMPORT_NORMALIZE", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Markdown.HardWraps)
	assert.True(t, cfg.Import.Normalize)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"日志级别", func(c *Config) { c.LogLevel = "loud" }},
		{"相对页面地址", func(c *Config) { c.PageURL = "/items" }},
		{"反馈时间", func(c *Config) { c.Enhance.FeedbackDelay = 0 }},
		{"图片大小", func(c *Config) { c.Upload.MaxBytes = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
			_, err := cfg.CoreOptions()
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quizmark.yaml")

	cfg := NewDefaultConfig()
	cfg.PageURL = "https://quiz.example.com"
	cfg.Import.Normalize = true
	cfg.Enhance.FeedbackDelay = 3 * time.Second
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.toml")
	content := `
title = "Unit 1"

[[item]]
id = "q1"
question = "What is **2+2**?"
answer = "4"

[[item]]
id = "q2"
question = "Name a prime"
answer = "7"
explanation = "7 has no divisors other than 1 and itself"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	file, err := LoadItems(path)
	require.NoError(t, err)
	assert.Equal(t, "Unit 1", file.Title)
	require.Len(t, file.Items, 2)
	assert.Equal(t, "q1", file.Items[0].ID)
	assert.Equal(t, "", file.Items[0].Explanation)
	assert.Equal(t, "7", file.Items[1].Answer)

	_, err = LoadItems(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.toml")
	require.NoError(t, os.WriteFile(dup, []byte("[[item]]\nid = \"a\"\n[[item]]\nid = \"a\"\n"), 0o644))
	_, err = LoadItems(dup)
	assert.ErrorContains(t, err, "duplicate")

	noID := filepath.Join(dir, "noid.toml")
	require.NoError(t, os.WriteFile(noID, []byte("[[item]]\nquestion = \"x\"\n"), 0o644))
	_, err = LoadItems(noID)
	assert.ErrorContains(t, err, "missing id")
}
