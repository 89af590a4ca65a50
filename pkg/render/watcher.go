package render

import (
	"context"
	"errors"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// MarkerClass 标记需要渲染的元素
	MarkerClass = "markdown-content"
	// NodeIDAttr 发现的元素上写入的节点 ID 属性
	NodeIDAttr = "data-node-id"
	// RenderedAttr 已被接管的元素标记
	RenderedAttr = "data-rendered"

	markerSelector = "." + MarkerClass + ":not([" + RenderedAttr + "])"

	defaultBuffer = 64
)

// EventKind 变更事件类型
type EventKind int

const (
	EventTextChanged EventKind = iota
	EventStructuralInsert
	EventNodeRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventTextChanged:
		return "text_changed"
	case EventStructuralInsert:
		return "structural_insert"
	case EventNodeRemoved:
		return "node_removed"
	default:
		return "unknown"
	}
}

// Event 一次内容变更
type Event struct {
	Kind    EventKind
	NodeID  string
	Text    string
	Subtree *html.Node
}

// Discovered 结构插入中发现的可渲染元素
type Discovered struct {
	ID      string
	Text    string
	Element *html.Node
}

// WatcherOption 监听器选项
type WatcherOption func(*Watcher)

// WithBuffer 设置事件通道容量
func WithBuffer(n int) WatcherOption {
	return func(w *Watcher) {
		if n > 0 {
			w.events = make(chan Event, n)
		}
	}
}

// WithWatcherLogger 设置日志
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDiscoverHook 在结构插入发现节点后回调，回调运行在事件循环中
func WithDiscoverHook(fn func(Discovered)) WatcherOption {
	return func(w *Watcher) {
		w.onDiscover = fn
	}
}

// Watcher 变更监听器，把变更事件串行交给调度器并触发渲染
//
// 生产者通过 TextChanged、StructuralInsert、NodeRemoved 投递事件，
// Run 是唯一的消费者。渲染以 goroutine 并发执行，以最新版本为准。
type Watcher struct {
	s          *Scheduler
	events     chan Event
	logger     *zap.Logger
	onDiscover func(Discovered)

	mu       sync.RWMutex
	stopped  bool
	stopping chan struct{}
	once     sync.Once

	pending sync.WaitGroup // 已投递未处理的事件
	renders sync.WaitGroup // 进行中的渲染
}

// NewWatcher 创建监听器
func NewWatcher(s *Scheduler, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		s:        s,
		events:   make(chan Event, defaultBuffer),
		logger:   zap.NewNop(),
		stopping: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// TextChanged 投递文本变更
func (w *Watcher) TextChanged(id, text string) error {
	return w.enqueue(Event{Kind: EventTextChanged, NodeID: id, Text: text})
}

// StructuralInsert 投递新插入的子树，子树在事件处理前不能再被修改
func (w *Watcher) StructuralInsert(subtree *html.Node) error {
	if subtree == nil {
		return nil
	}
	return w.enqueue(Event{Kind: EventStructuralInsert, Subtree: subtree})
}

// NodeRemoved 投递节点删除
func (w *Watcher) NodeRemoved(id string) error {
	return w.enqueue(Event{Kind: EventNodeRemoved, NodeID: id})
}

func (w *Watcher) enqueue(ev Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrWatcherStopped
	}

	w.pending.Add(1)
	select {
	case w.events <- ev:
		return nil
	case <-w.stopping:
		w.pending.Done()
		return ErrWatcherStopped
	}
}

// Run 消费事件直到 ctx 结束，返回前等待进行中的渲染完成
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.events:
			w.handle(ctx, ev)
			w.pending.Done()
		}
	}
}

func (w *Watcher) stop() {
	w.once.Do(func() {
		close(w.stopping)

		w.mu.Lock()
		w.stopped = true
	drain:
		for {
			select {
			case <-w.events:
				w.pending.Done()
			default:
				break drain
			}
		}
		w.mu.Unlock()

		w.renders.Wait()
	})
}

// Sync 等待已投递的事件处理完毕以及由此触发的渲染结束
func (w *Watcher) Sync() {
	w.pending.Wait()
	w.renders.Wait()
}

func (w *Watcher) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventTextChanged:
		w.handleTextChanged(ctx, ev)
	case EventStructuralInsert:
		for _, d := range Discover(ev.Subtree) {
			if err := w.s.Add(d.ID, d.Text); err != nil {
				w.logger.Warn("注册插入的节点失败", zap.String("node", d.ID), zap.Error(err))
				continue
			}
			if w.onDiscover != nil {
				w.onDiscover(d)
			}
			w.spawn(ctx, d.ID)
		}
	case EventNodeRemoved:
		if err := w.s.Remove(ev.NodeID); err != nil {
			w.logger.Debug("删除节点", zap.String("node", ev.NodeID), zap.Error(err))
		}
	default:
		w.logger.Warn("未知的变更事件", zap.Int("kind", int(ev.Kind)))
	}
}

func (w *Watcher) handleTextChanged(ctx context.Context, ev Event) {
	changed, err := w.s.SetText(ev.NodeID, ev.Text)
	if errors.Is(err, ErrUnknownNode) {
		if err := w.s.Add(ev.NodeID, ev.Text); err != nil {
			w.logger.Warn("注册节点失败", zap.String("node", ev.NodeID), zap.Error(err))
			return
		}
		changed, err = true, nil
	}
	if err != nil {
		w.logger.Warn("更新节点文本失败", zap.String("node", ev.NodeID), zap.Error(err))
		return
	}
	if !changed {
		return
	}
	w.spawn(ctx, ev.NodeID)
}

func (w *Watcher) spawn(ctx context.Context, id string) {
	w.renders.Add(1)
	go func() {
		defer w.renders.Done()
		outcome, err := w.s.Render(ctx, id)
		if err != nil && !errors.Is(err, ErrUnknownNode) {
			w.logger.Warn("渲染失败", zap.String("node", id), zap.Error(err))
			return
		}
		w.logger.Debug("渲染完成", zap.String("node", id), zap.Stringer("outcome", outcome))
	}()
}

// Discover 查找子树中尚未接管的可渲染元素（包括根元素本身），
// 为每个元素写入新的节点 ID 并标记为已接管
func Discover(subtree *html.Node) []Discovered {
	if subtree == nil {
		return nil
	}

	doc := goquery.NewDocumentFromNode(subtree)
	matches := doc.Selection.Filter(markerSelector).AddSelection(doc.Find(markerSelector))

	found := make([]Discovered, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		id := uuid.NewString()
		s.SetAttr(NodeIDAttr, id)
		s.SetAttr(RenderedAttr, "true")
		found = append(found, Discovered{
			ID:      id,
			Text:    s.Text(),
			Element: s.Get(0),
		})
	})
	return found
}
