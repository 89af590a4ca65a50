package editor

import (
	"fmt"
	"sync"

	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"github.com/nerdneilsfield/quizmark/pkg/table"
	"github.com/nerdneilsfield/quizmark/pkg/upload"
	"go.uber.org/zap"
)

// ChangeFunc 编辑源文本变化回调
type ChangeFunc func(nodeID, value string)

// Workspace 管理一组编辑源和当前焦点
type Workspace struct {
	mu       sync.Mutex
	sources  []*Source
	byID     map[string]*Source
	focused  *Source
	notifier notify.Notifier
	onChange ChangeFunc
	logger   *zap.Logger
}

// NewWorkspace 创建工作区，onChange 在任意编辑源文本变化后调用
func NewWorkspace(notifier notify.Notifier, onChange ChangeFunc, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		byID:     make(map[string]*Source),
		notifier: notify.OrNop(notifier),
		onChange: onChange,
		logger:   logger,
	}
}

// Add 注册编辑源
func (w *Workspace) Add(src *Source) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[src.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, src.ID())
	}

	src.mu.Lock()
	src.onChange = w.changed
	src.mu.Unlock()

	w.sources = append(w.sources, src)
	w.byID[src.ID()] = src
	return nil
}

func (w *Workspace) changed(nodeID, value string) {
	if w.onChange != nil {
		w.onChange(nodeID, value)
	}
}

// Remove 注销编辑源
func (w *Workspace) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	delete(w.byID, id)
	for i, s := range w.sources {
		if s == src {
			w.sources = append(w.sources[:i], w.sources[i+1:]...)
			break
		}
	}
	if w.focused == src {
		w.focused = nil
	}

	src.mu.Lock()
	src.onChange = nil
	src.mu.Unlock()
	return nil
}

// Source 按 ID 查找编辑源
func (w *Workspace) Source(id string) (*Source, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.byID[id]
	return src, ok
}

// Sources 按注册顺序返回编辑源
func (w *Workspace) Sources() []*Source {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Source(nil), w.sources...)
}

// Focus 让编辑源获得焦点
func (w *Workspace) Focus(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	w.focused = src
	return nil
}

// Blur 让编辑源失去焦点，id 不是当前焦点时不做任何事
func (w *Workspace) Blur(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.focused != nil && w.focused.ID() == id {
		w.focused = nil
	}
}

// Focused 返回当前焦点
func (w *Workspace) Focused() *Source {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// Target 解析插入目标：焦点编辑源，否则第一个可见编辑源
//
// fallback 为 true 表示使用了第一个可见编辑源。
func (w *Workspace) Target() (src *Source, fallback bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.focused != nil {
		return w.focused, false, nil
	}
	for _, s := range w.sources {
		if s.Visible() {
			return s, true, nil
		}
	}
	return nil, false, ErrNoEditor
}

// insert 按目标解析规则插入文本并通知结果
func (w *Workspace) insert(scope, text, what string) (*Source, error) {
	src, fallback, err := w.Target()
	if err != nil {
		w.notifier.Notify(scope, "activate an editor first", notify.SeverityWarning)
		return nil, err
	}

	if fallback {
		src.Append(text)
		w.notifier.Notify(scope, what+" inserted into first visible editor", notify.SeveritySuccess)
	} else {
		src.InsertAtCursor(text)
	}

	w.logger.Debug("插入内容",
		zap.String("scope", scope),
		zap.String("source", src.ID()),
		zap.String("what", what),
		zap.Bool("fallback", fallback),
	)
	return src, nil
}

// InsertTable 把网格以 Markdown 表格插入目标编辑源
func (w *Workspace) InsertTable(scope string, g table.Grid) error {
	md, err := table.ToMarkdown(g)
	if err != nil {
		w.notifier.Notify(scope, "table is invalid: "+err.Error(), notify.SeverityError)
		return err
	}

	if _, err := w.insert(scope, "\n"+md+"\n", "table"); err != nil {
		return err
	}
	w.notifier.Notify(scope, "table inserted", notify.SeveritySuccess)
	return nil
}

// InsertImage 把图片 Markdown 插入目标编辑源
func (w *Workspace) InsertImage(scope, alt, url string) error {
	if _, err := w.insert(scope, upload.ImageMarkdown(alt, url), "image"); err != nil {
		return err
	}
	w.notifier.Notify(scope, "image uploaded", notify.SeveritySuccess)
	return nil
}

// ApplyFormatting 用前后缀包裹焦点编辑源的选区，没有焦点时不做任何事
func (w *Workspace) ApplyFormatting(prefix, suffix, placeholder string) bool {
	src := w.Focused()
	if src == nil {
		return false
	}
	src.Wrap(prefix, suffix, placeholder)
	return true
}
