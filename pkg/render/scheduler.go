// Package render 调度内容节点的渲染，保证幂等且以最新文本为准
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerdneilsfield/quizmark/pkg/enhance"
	"github.com/nerdneilsfield/quizmark/pkg/markdown"
	"go.uber.org/zap"
)

// Sink 接收已提交的渲染结果
//
// Commit 在调度器锁内调用，提交顺序与调用顺序一致，实现不能回调调度器。
type Sink interface {
	Commit(nodeID, html string)
}

// SinkFunc 将函数适配为 Sink
type SinkFunc func(nodeID, html string)

// Commit 实现 Sink
func (f SinkFunc) Commit(nodeID, html string) {
	f(nodeID, html)
}

// Option 调度器选项
type Option func(*Scheduler)

// WithSink 设置结果接收者
func WithSink(sink Sink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scheduler 渲染调度器
type Scheduler struct {
	mu       sync.Mutex
	nodes    map[string]*ContentNode
	order    []string
	conv     markdown.HTMLConverter
	enhancer *enhance.Enhancer
	sink     Sink
	logger   *zap.Logger
}

// NewScheduler 创建调度器，enhancer 为 nil 时只做转换
func NewScheduler(conv markdown.HTMLConverter, enhancer *enhance.Enhancer, opts ...Option) *Scheduler {
	s := &Scheduler{
		nodes:    make(map[string]*ContentNode),
		conv:     conv,
		enhancer: enhancer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add 注册一个未渲染的节点
func (s *Scheduler) Add(id, raw string) error {
	if id == "" {
		return ErrEmptyNodeID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	s.nodes[id] = &ContentNode{id: id, raw: raw, version: 1}
	s.order = append(s.order, id)
	return nil
}

// Remove 销毁节点，进行中的渲染结果会被丢弃
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.result != nil {
		n.result.Release()
	}
	delete(s.nodes, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetText 更新节点文本，文本不同时递增版本并回到未渲染状态
func (s *Scheduler) SetText(id, raw string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.raw == raw {
		return false, nil
	}
	n.raw = raw
	n.invalidate()
	return true, nil
}

// Invalidate 强制节点在下次 Render 时重新渲染
func (s *Scheduler) Invalidate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.invalidate()
	return nil
}

// Render 渲染节点
//
// 已渲染或同一版本正在渲染时直接跳过。转换和增强在锁外进行，
// 只有节点仍存在且版本未变时才提交。
func (s *Scheduler) Render(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return OutcomeSkipped, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if n.state == StateRendered || n.inflight == n.version {
		s.mu.Unlock()
		return OutcomeSkipped, nil
	}
	version, raw := n.version, n.raw
	n.state = StateRendering
	n.inflight = version
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.mu.Lock()
		if n.inflight == version {
			n.inflight = 0
		}
		if n.version == version && n.state == StateRendering {
			n.state = StateUnrendered
		}
		s.mu.Unlock()
		return OutcomeSkipped, err
	}

	out, frag, res, failed := s.produce(id, raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if n.inflight == version {
		n.inflight = 0
	}
	if cur, ok := s.nodes[id]; !ok || cur != n || n.version != version {
		if res != nil {
			res.Release()
		}
		s.logger.Debug("丢弃过期的渲染结果",
			zap.String("node", id),
			zap.Uint64("version", version),
			zap.Uint64("current", n.version),
		)
		return OutcomeDiscarded, nil
	}

	if n.result != nil {
		n.result.Release()
	}
	n.state = StateRendered
	n.html = out
	n.fragment = frag
	n.result = res
	n.failed = failed

	if s.sink != nil {
		s.sink.Commit(id, out)
	}
	s.logger.Debug("渲染结果已提交",
		zap.String("node", id),
		zap.Uint64("version", version),
		zap.Bool("failed", failed),
	)
	return OutcomeCommitted, nil
}

// produce 转换并增强，转换失败时返回降级内容
func (s *Scheduler) produce(id, raw string) (string, *enhance.Fragment, *enhance.Result, bool) {
	rendered, failed := markdown.ConvertOrDegrade(s.conv, raw, s.logger)

	frag, err := enhance.NewFragment(id, rendered)
	if err != nil {
		s.logger.Error("解析渲染结果失败", zap.String("node", id), zap.Error(err))
		return markdown.Degrade(raw, err), nil, nil, true
	}

	var res *enhance.Result
	if s.enhancer != nil {
		res = s.enhancer.Enhance(frag)
	}
	return frag.HTML(), frag, res, failed
}

// RenderAll 依次渲染所有节点，返回合并后的错误
func (s *Scheduler) RenderAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.IDs() {
		if _, err := s.Render(ctx, id); err != nil {
			if errors.Is(err, ErrUnknownNode) {
				// 遍历期间被移除
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Node 返回节点快照
func (s *Scheduler) Node(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return Snapshot{}, false
	}
	return n.snapshot(), true
}

// Has 判断节点是否存在
func (s *Scheduler) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[id]
	return ok
}

// IDs 按注册顺序返回节点 ID
func (s *Scheduler) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
