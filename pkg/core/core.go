// Package core 把转换、增强、渲染调度、编辑源和图片选择组装成题目编辑器内核
package core

import (
	"context"
	"fmt"

	"github.com/nerdneilsfield/quizmark/pkg/editor"
	"github.com/nerdneilsfield/quizmark/pkg/enhance"
	"github.com/nerdneilsfield/quizmark/pkg/markdown"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"github.com/nerdneilsfield/quizmark/pkg/render"
	"github.com/nerdneilsfield/quizmark/pkg/reverse"
	"github.com/nerdneilsfield/quizmark/pkg/table"
	"github.com/nerdneilsfield/quizmark/pkg/upload"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Options 内核选项
type Options struct {
	Markdown      markdown.Options
	Enhance       enhance.Options
	Upload        upload.Options
	ImageAlt      string // 插入图片的 alt，为空时使用 upload.DefaultAlt
	Import        reverse.Options
	Sink          render.Sink // 接收渲染结果，可以为 nil
	WatcherBuffer int
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Markdown: markdown.DefaultOptions(),
		Enhance:  enhance.DefaultOptions(),
	}
}

// Core 题目编辑器内核
type Core struct {
	opts      Options
	conv      *markdown.Converter
	enhancer  *enhance.Enhancer
	scheduler *render.Scheduler
	watcher   *render.Watcher
	workspace *editor.Workspace
	reverse   *reverse.Converter
	notifier  notify.Notifier
	logger    *zap.Logger
}

// New 创建内核
func New(opts Options, cb enhance.Clipboard, notifier notify.Notifier, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier = notify.OrNop(notifier)

	c := &Core{
		opts:     opts,
		conv:     markdown.NewConverter(opts.Markdown),
		enhancer: enhance.New(opts.Enhance, cb, notifier, logger.Named("enhance")),
		reverse:  reverse.New(opts.Import, logger.Named("reverse")),
		notifier: notifier,
		logger:   logger,
	}

	schedOpts := []render.Option{render.WithLogger(logger.Named("render"))}
	if opts.Sink != nil {
		schedOpts = append(schedOpts, render.WithSink(opts.Sink))
	}
	c.scheduler = render.NewScheduler(c.conv, c.enhancer, schedOpts...)
	c.watcher = render.NewWatcher(c.scheduler,
		render.WithBuffer(opts.WatcherBuffer),
		render.WithWatcherLogger(logger.Named("watcher")),
	)
	c.workspace = editor.NewWorkspace(notifier, c.sourceChanged, logger.Named("editor"))
	return c
}

func (c *Core) sourceChanged(nodeID, value string) {
	if err := c.watcher.TextChanged(nodeID, value); err != nil {
		c.logger.Warn("投递文本变更失败", zap.String("node", nodeID), zap.Error(err))
	}
}

// Scheduler 返回渲染调度器
func (c *Core) Scheduler() *render.Scheduler {
	return c.scheduler
}

// Workspace 返回编辑工作区
func (c *Core) Workspace() *editor.Workspace {
	return c.workspace
}

// Enhancer 返回增强器
func (c *Core) Enhancer() *enhance.Enhancer {
	return c.enhancer
}

// Convert 转换 Markdown，失败时返回降级内容
func (c *Core) Convert(source string) string {
	out, _ := markdown.ConvertOrDegrade(c.conv, source, c.logger)
	return out
}

// ConvertWithMeta 转换并返回 front matter
func (c *Core) ConvertWithMeta(source string) (string, map[string]interface{}, error) {
	return c.conv.ConvertWithMeta(source)
}

// RenderString 转换并增强一段独立的 Markdown，不登记为内容节点
func (c *Core) RenderString(id, source string) (string, *enhance.Result, error) {
	frag, res, err := c.enhancer.EnhanceHTML(id, c.Convert(source))
	if err != nil {
		return "", nil, err
	}
	return frag.HTML(), res, nil
}

// Render 渲染内容节点
func (c *Core) Render(ctx context.Context, id string) (render.Outcome, error) {
	return c.scheduler.Render(ctx, id)
}

// RenderAll 渲染所有内容节点
func (c *Core) RenderAll(ctx context.Context) error {
	return c.scheduler.RenderAll(ctx)
}

// Node 返回内容节点快照
func (c *Core) Node(id string) (render.Snapshot, bool) {
	return c.scheduler.Node(id)
}

// TableToMarkdown 把网格转换为 Markdown 表格
func (c *Core) TableToMarkdown(g table.Grid) (string, error) {
	return table.ToMarkdown(g)
}

// OnTextChanged 处理编辑后的文本
//
// 节点绑定了编辑源时先更新编辑源，后续插入以新文本为基础。
func (c *Core) OnTextChanged(id, text string) error {
	if src, ok := c.workspace.Source(EditorID(id)); ok {
		src.SetValue(text)
		return nil
	}
	return c.watcher.TextChanged(id, text)
}

// OnStructuralInsert 处理新插入的子树
func (c *Core) OnStructuralInsert(subtree *html.Node) error {
	return c.watcher.StructuralInsert(subtree)
}

// OnNodeRemoved 处理节点删除
func (c *Core) OnNodeRemoved(id string) error {
	return c.watcher.NodeRemoved(id)
}

// NewUploadSession 为一个图片对话框创建会话
func (c *Core) NewUploadSession(scope string) *upload.Session {
	return upload.NewSession(scope, c.opts.Upload, c.notifier, c.logger.Named("upload"))
}

// OnFileSelected 读取选择的图片并插入到目标编辑源
func (c *Core) OnFileSelected(ctx context.Context, session *upload.Session, file upload.File) (upload.Preview, error) {
	p, err := session.Select(ctx, file)
	if err != nil {
		return upload.Preview{}, err
	}
	if err := c.workspace.InsertImage(session.Scope(), c.opts.ImageAlt, p.DataURL); err != nil {
		// 没有可插入的编辑源时预览仍然保留，用户可以选择编辑器后重试
		return p, err
	}
	return p, nil
}

// InsertTable 把网格插入目标编辑源
func (c *Core) InsertTable(scope string, g table.Grid) error {
	return c.workspace.InsertTable(scope, g)
}

// ImportLegacy 把旧版 HTML 转换为 Markdown 并写入节点
//
// id 对应编辑源时写入编辑源，否则直接作为节点文本。
func (c *Core) ImportLegacy(id, source string) (string, error) {
	md := c.reverse.Convert(source)
	if src, ok := c.workspace.Source(EditorID(id)); ok {
		src.SetValue(md)
		return md, nil
	}
	if err := c.watcher.TextChanged(id, md); err != nil {
		return md, fmt.Errorf("failed to import %s: %w", id, err)
	}
	return md, nil
}

// Run 运行变更监听，直到 ctx 结束
func (c *Core) Run(ctx context.Context) error {
	return c.watcher.Run(ctx)
}

// Sync 等待已投递的变更全部渲染完毕
func (c *Core) Sync() {
	c.watcher.Sync()
}
