// Package upload 管理图片选择对话框中的本地图片预览
//
// 每个对话框持有自己的 Session，预览结果不在全局共享。
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"go.uber.org/zap"
)

// DefaultMaxBytes 单个图片的默认大小上限
const DefaultMaxBytes int64 = 10 << 20

// DefaultAlt 图片没有说明文字时使用的 alt
const DefaultAlt = "image"

var (
	// ErrNotImage 文件类型不是图片
	ErrNotImage = errors.New("file is not an image")
	// ErrTooLarge 文件超过大小上限
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("upload session closed")
)

// File 用户选择的文件
type File struct {
	Name     string
	MimeType string // 浏览器或调用方声明的类型
	Reader   io.Reader
}

// Preview 已读取的图片预览
type Preview struct {
	ID       string
	Name     string
	MimeType string
	DataURL  string
	Size     int64
}

// Options 会话选项
type Options struct {
	MaxBytes int64
}

// Session 一次图片选择对话框的状态
type Session struct {
	mu       sync.Mutex
	scope    string
	maxBytes int64
	notifier notify.Notifier
	logger   *zap.Logger
	previews []Preview
	closed   bool
}

// NewSession 创建会话，scope 是通知所属的节点
func NewSession(scope string, opts Options, notifier notify.Notifier, logger *zap.Logger) *Session {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		scope:    scope,
		maxBytes: opts.MaxBytes,
		notifier: notify.OrNop(notifier),
		logger:   logger,
	}
}

// Scope 返回会话所属节点
func (s *Session) Scope() string {
	return s.scope
}

// Select 读取用户选择的图片并生成 data URL 预览
//
// 非图片或超过大小上限的文件会被拒绝，会话状态不变。
func (s *Session) Select(ctx context.Context, f File) (Preview, error) {
	if s.isClosed() {
		return Preview{}, ErrClosed
	}

	mediaType, ok := imageType(f.MimeType)
	if !ok {
		s.notifier.Notify(s.scope, "please choose an image file", notify.SeverityError)
		return Preview{}, fmt.Errorf("%w: %q", ErrNotImage, f.MimeType)
	}
	if f.Reader == nil {
		return Preview{}, fmt.Errorf("no data for %s", f.Name)
	}
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}

	data, err := io.ReadAll(io.LimitReader(f.Reader, s.maxBytes+1))
	if err != nil {
		s.logger.Warn("读取图片失败", zap.String("file", f.Name), zap.Error(err))
		s.notifier.Notify(s.scope, "failed to read image: "+err.Error(), notify.SeverityError)
		return Preview{}, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > s.maxBytes {
		s.notifier.Notify(s.scope, "image is too large", notify.SeverityError)
		return Preview{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, f.Name, s.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}

	p := Preview{
		ID:       uuid.NewString(),
		Name:     f.Name,
		MimeType: mediaType,
		DataURL:  DataURL(mediaType, data),
		Size:     int64(len(data)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Preview{}, ErrClosed
	}
	s.previews = append(s.previews, p)

	s.logger.Debug("图片已读取", zap.String("file", f.Name), zap.String("mime", mediaType), zap.Int64("size", p.Size))
	return p, nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Previews 返回预览副本
func (s *Session) Previews() []Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Preview(nil), s.previews...)
}

// Latest 返回最近一次选择的预览
func (s *Session) Latest() (Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.previews) == 0 {
		return Preview{}, false
	}
	return s.previews[len(s.previews)-1], true
}

// Remove 删除预览
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.previews {
		if p.ID == id {
			s.previews = append(s.previews[:i], s.previews[i+1:]...)
			return true
		}
	}
	return false
}

// Close 关闭会话并丢弃全部预览
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.previews = nil
}

func imageType(declared string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", false
	}
	return mediaType, strings.HasPrefix(mediaType, "image/")
}

// IsImage 判断声明的类型是否为图片
func IsImage(declared string) bool {
	_, ok := imageType(declared)
	return ok
}

// DataURL 以 base64 编码生成 data URL
func DataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var altEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "\n", " ")

// ImageMarkdown 生成图片 Markdown，alt 为空时使用 DefaultAlt
func ImageMarkdown(alt, url string) string {
	alt = strings.TrimSpace(alt)
	if alt == "" {
		alt = DefaultAlt
	}
	return "![" + altEscaper.Replace(alt) + "](" + url + ")"
}
