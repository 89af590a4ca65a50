package enhance

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable 当前环境没有可用的剪贴板
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard 剪贴板写入接口
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc 将函数适配为 Clipboard
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText 实现 Clipboard
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// SystemClipboard 使用操作系统剪贴板
type SystemClipboard struct{}

// WriteText 实现 Clipboard
func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// unavailableClipboard 在未配置剪贴板时使用
type unavailableClipboard struct{}

func (unavailableClipboard) WriteText(context.Context, string) error {
	return ErrClipboardUnavailable
}
