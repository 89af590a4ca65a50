package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"go.uber.org/zap"
)

// FileSource 把磁盘上的 Markdown 文件当作编辑源
//
// 监听文件所在目录，这样编辑器以重命名方式保存时也能收到事件。
type FileSource struct {
	path     string
	nodeID   string
	onChange ChangeFunc
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewFileSource 创建文件编辑源
func NewFileSource(path, nodeID string, onChange ChangeFunc, notifier notify.Notifier, logger *zap.Logger) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		path:     abs,
		nodeID:   nodeID,
		onChange: onChange,
		notifier: notify.OrNop(notifier),
		logger:   logger,
	}, nil
}

// Path 返回文件绝对路径
func (f *FileSource) Path() string {
	return f.path
}

// NodeID 返回绑定的内容节点 ID
func (f *FileSource) NodeID() string {
	return f.nodeID
}

// Load 读取文件并触发变化回调
func (f *FileSource) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	text := string(data)
	if f.onChange != nil {
		f.onChange(f.nodeID, text)
	}
	return text, nil
}

// Run 读取一次文件，然后在文件写入或创建时重新读取，直到 ctx 结束
func (f *FileSource) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	if _, err := f.Load(); err != nil {
		return err
	}
	f.logger.Info("开始监听文件", zap.String("path", f.path))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if _, err := f.Load(); err != nil {
				f.logger.Warn("读取文件失败", zap.String("path", f.path), zap.Error(err))
				f.notifier.Notify(f.nodeID, err.Error(), notify.SeverityWarning)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("文件监听错误", zap.String("path", f.path), zap.Error(err))
			f.notifier.Notify(f.nodeID, "file watch error: "+err.Error(), notify.SeverityWarning)
		}
	}
}
