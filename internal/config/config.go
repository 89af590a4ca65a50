package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nerdneilsfield/quizmark/pkg/core"
	"github.com/nerdneilsfield/quizmark/pkg/enhance"
	"github.com/nerdneilsfield/quizmark/pkg/markdown"
	"github.com/nerdneilsfield/quizmark/pkg/reverse"
	"github.com/nerdneilsfield/quizmark/pkg/upload"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// MarkdownConfig Markdown 转换配置
type MarkdownConfig struct {
	Math        bool   `mapstructure:"math"`         // 启用公式
	FrontMatter bool   `mapstructure:"front_matter"` // 解析 YAML front matter
	HardWraps   bool   `mapstructure:"hard_wraps"`   // 软换行输出为 <br>
	Sanitize    bool   `mapstructure:"sanitize"`     // 清理输出 HTML
	Placeholder string `mapstructure:"placeholder"`  // 空内容占位文本
}

// LabelsConfig 控件文字
type LabelsConfig struct {
	Copy        string `mapstructure:"copy"`
	Copied      string `mapstructure:"copied"`
	Failed      string `mapstructure:"failed"`
	CopyTitle   string `mapstructure:"copy_title"`
	AnchorGlyph string `mapstructure:"anchor_glyph"`
	AnchorDone  string `mapstructure:"anchor_done"`
	AnchorTitle string `mapstructure:"anchor_title"`
	ImageAlt    string `mapstructure:"image_alt"`
}

// EnhanceConfig HTML 增强配置
type EnhanceConfig struct {
	Labels        LabelsConfig  `mapstructure:"labels"`
	TableClass    string        `mapstructure:"table_class"`
	WrapperClass  string        `mapstructure:"wrapper_class"`
	FeedbackDelay time.Duration `mapstructure:"feedback_delay"` // 复制反馈停留时间
}

// UploadConfig 图片选择配置
type UploadConfig struct {
	MaxBytes int64  `mapstructure:"max_bytes"` // 单个图片大小上限
	ImageAlt string `mapstructure:"image_alt"` // 插入图片时的 alt
}

// ImportConfig 旧版 HTML 导入配置
type ImportConfig struct {
	Normalize bool `mapstructure:"normalize"` // 使用 markdownfmt 重新排版
}

// WatchConfig 文件监听配置
type WatchConfig struct {
	Output string `mapstructure:"output"` // 渲染结果输出文件
}

// Config 保存全部配置
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	LogLevel string         `mapstructure:"log_level"`
	PageURL  string         `mapstructure:"page_url"` // 页面地址，用于外部链接判断和标题链接
	Markdown MarkdownConfig `mapstructure:"markdown"`
	Enhance  EnhanceConfig  `mapstructure:"enhance"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Import   ImportConfig   `mapstructure:"import"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".quizmark")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，嵌套键的 "." 替换为 "_"
	v.SetEnvPrefix("QUIZMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".quizmark.yaml")
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.MergeConfigMap(structToMap(config)); err != nil {
		return err
	}

	// 创建父目录（如果不存在）
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return v.WriteConfig()
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	labels := enhance.DefaultLabels()
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Markdown: MarkdownConfig{
			Sanitize:    true,
			Placeholder: markdown.DefaultPlaceholder,
		},
		Enhance: EnhanceConfig{
			Labels: LabelsConfig{
				Copy:        labels.Copy,
				Copied:      labels.Copied,
				Failed:      labels.Failed,
				CopyTitle:   labels.CopyTitle,
				AnchorGlyph: labels.AnchorGlyph,
				AnchorDone:  labels.AnchorDone,
				AnchorTitle: labels.AnchorTitle,
				ImageAlt:    labels.ImageAlt,
			},
			TableClass:    enhance.DefaultTableClass,
			WrapperClass:  enhance.DefaultWrapperClass,
			FeedbackDelay: enhance.DefaultFeedbackDelay,
		},
		Upload: UploadConfig{
			MaxBytes: upload.DefaultMaxBytes,
			ImageAlt: upload.DefaultAlt,
		},
	}
}

func setDefaults(v *viper.Viper) {
	def := NewDefaultConfig()
	for key, val := range flatten("", structToMap(def)) {
		v.SetDefault(key, val)
	}
}

// flatten 把嵌套 map 展开为 viper 的点分键
func flatten(prefix string, m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// structToMap 将结构体转换为 map
func structToMap(config *Config) map[string]interface{} {
	l := config.Enhance.Labels
	return map[string]interface{}{
		"debug":     config.Debug,
		"log_level": config.LogLevel,
		"page_url":  config.PageURL,
		"markdown": map[string]interface{}{
			"math":         config.Markdown.Math,
			"front_matter": config.Markdown.FrontMatter,
			"hard_wraps":   config.Markdown.HardWraps,
			"sanitize":     config.Markdown.Sanitize,
			"placeholder":  config.Markdown.Placeholder,
		},
		"enhance": map[string]interface{}{
			"labels": map[string]interface{}{
				"copy":         l.Copy,
				"copied":       l.Copied,
				"failed":       l.Failed,
				"copy_title":   l.CopyTitle,
				"anchor_glyph": l.AnchorGlyph,
				"anchor_done":  l.AnchorDone,
				"anchor_title": l.AnchorTitle,
				"image_alt":    l.ImageAlt,
			},
			"table_class":    config.Enhance.TableClass,
			"wrapper_class":  config.Enhance.WrapperClass,
			"feedback_delay": config.Enhance.FeedbackDelay.String(),
		},
		"upload": map[string]interface{}{
			"max_bytes": config.Upload.MaxBytes,
			"image_alt": config.Upload.ImageAlt,
		},
		"import": map[string]interface{}{
			"normalize": config.Import.Normalize,
		},
		"watch": map[string]interface{}{
			"output": config.Watch.Output,
		},
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
		}
	}
	if c.PageURL != "" {
		u, err := url.Parse(c.PageURL)
		if err != nil {
			return fmt.Errorf("invalid page_url: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("page_url must be an absolute URL: %q", c.PageURL)
		}
	}
	if c.Enhance.FeedbackDelay <= 0 {
		return fmt.Errorf("enhance.feedback_delay must be positive, got %s", c.Enhance.FeedbackDelay)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}

// CoreOptions 把配置转换为内核选项
func (c *Config) CoreOptions() (core.Options, error) {
	if err := c.Validate(); err != nil {
		return core.Options{}, err
	}

	var page *url.URL
	if c.PageURL != "" {
		// Validate 已检查过
		page, _ = url.Parse(c.PageURL)
	}

	l := c.Enhance.Labels
	return core.Options{
		Markdown: markdown.Options{
			Math:        c.Markdown.Math,
			FrontMatter: c.Markdown.FrontMatter,
			HardWraps:   c.Markdown.HardWraps,
			Sanitize:    c.Markdown.Sanitize,
			Placeholder: c.Markdown.Placeholder,
		},
		Enhance: enhance.Options{
			PageURL: page,
			Labels: enhance.Labels{
				Copy:        l.Copy,
				Copied:      l.Copied,
				Failed:      l.Failed,
				CopyTitle:   l.CopyTitle,
				AnchorGlyph: l.AnchorGlyph,
				AnchorDone:  l.AnchorDone,
				AnchorTitle: l.AnchorTitle,
				ImageAlt:    l.ImageAlt,
			},
			FeedbackDelay: c.Enhance.FeedbackDelay,
			TableClass:    c.Enhance.TableClass,
			WrapperClass:  c.Enhance.WrapperClass,
		},
		Upload:   upload.Options{MaxBytes: c.Upload.MaxBytes},
		ImageAlt: c.Upload.ImageAlt,
		Import:   reverse.Options{Normalize: c.Import.Normalize},
	}, nil
}
