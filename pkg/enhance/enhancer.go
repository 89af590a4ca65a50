// Package enhance 为渲染后的 HTML 片段添加展示层增强
//
// 增强只改变展示（按钮、包装容器、属性），不改变叶子节点的文本内容。
// 交互控件既以标记形式写入片段，也以控制器对象返回给界面层驱动。
package enhance

import (
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/quizmark/pkg/anchor"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"go.uber.org/zap"
)

// DefaultFeedbackDelay 复制反馈恢复原状前的停留时间
const DefaultFeedbackDelay = 2 * time.Second

const (
	DefaultTableClass   = "table table-striped table-bordered"
	DefaultWrapperClass = "table-responsive"
)

// Labels 控件上显示的文字
type Labels struct {
	Copy        string
	Copied      string
	Failed      string
	CopyTitle   string
	AnchorGlyph string
	AnchorDone  string
	AnchorTitle string
	ImageAlt    string
}

// DefaultLabels 返回默认文字
func DefaultLabels() Labels {
	return Labels{
		Copy:        "copy",
		Copied:      "copied",
		Failed:      "failed",
		CopyTitle:   "Copy code",
		AnchorGlyph: "🔗",
		AnchorDone:  "✅",
		AnchorTitle: "Copy heading link",
		ImageAlt:    "image",
	}
}

// Options 增强器选项
type Options struct {
	PageURL       *url.URL // 当前页面地址，用于区分外部链接和生成标题链接
	Labels        Labels
	FeedbackDelay time.Duration
	TableClass    string
	WrapperClass  string
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Labels:        DefaultLabels(),
		FeedbackDelay: DefaultFeedbackDelay,
		TableClass:    DefaultTableClass,
		WrapperClass:  DefaultWrapperClass,
	}
}

// Enhancer HTML 增强器
type Enhancer struct {
	opts      Options
	clipboard Clipboard
	notifier  notify.Notifier
	logger    *zap.Logger
	overlays  *OverlayHost
}

// New 创建增强器，clipboard 为 nil 时复制类操作会失败并降级
func New(opts Options, cb Clipboard, notifier notify.Notifier, logger *zap.Logger) *Enhancer {
	def := DefaultOptions()
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = def.FeedbackDelay
	}
	if opts.TableClass == "" {
		opts.TableClass = def.TableClass
	}
	if opts.WrapperClass == "" {
		opts.WrapperClass = def.WrapperClass
	}
	opts.Labels = mergeLabels(opts.Labels, def.Labels)

	if cb == nil {
		cb = unavailableClipboard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{
		opts:      opts,
		clipboard: cb,
		notifier:  notify.OrNop(notifier),
		logger:    logger,
		overlays:  NewOverlayHost(),
	}
}

func mergeLabels(l, def Labels) Labels {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Labels{
		Copy:        pick(l.Copy, def.Copy),
		Copied:      pick(l.Copied, def.Copied),
		Failed:      pick(l.Failed, def.Failed),
		CopyTitle:   pick(l.CopyTitle, def.CopyTitle),
		AnchorGlyph: pick(l.AnchorGlyph, def.AnchorGlyph),
		AnchorDone:  pick(l.AnchorDone, def.AnchorDone),
		AnchorTitle: pick(l.AnchorTitle, def.AnchorTitle),
		ImageAlt:    pick(l.ImageAlt, def.ImageAlt),
	}
}

// Overlays 返回图片放大浮层宿主
func (e *Enhancer) Overlays() *OverlayHost {
	return e.overlays
}

// Options 返回生效的选项
func (e *Enhancer) Options() Options {
	return e.opts
}

// Result 一次增强的结果
type Result struct {
	CopyButtons   []*CopyButton
	Headings      []*HeadingAnchor
	Images        []*ZoomTrigger
	Tables        int
	WrappedTables int // 本次新包装的表格数
	Links         int
	ExternalLinks int
}

// Stat 汇总中的一项
type Stat struct {
	Name  string
	Count int
}

// Summary 返回按固定顺序排列的统计
func (r *Result) Summary() []Stat {
	return []Stat{
		{"code blocks", len(r.CopyButtons)},
		{"tables", r.Tables},
		{"tables wrapped", r.WrappedTables},
		{"images", len(r.Images)},
		{"links", r.Links},
		{"external links", r.ExternalLinks},
		{"headings", len(r.Headings)},
	}
}

// Enhance 就地增强片段，重复调用是幂等的
func (e *Enhancer) Enhance(frag *Fragment) *Result {
	res := &Result{}
	frag.with(func() {
		doc := frag.selection()
		e.enhanceCodeBlocks(frag, doc, res)
		e.enhanceTables(doc, res)
		e.enhanceImages(frag, doc, res)
		e.enhanceLinks(doc, res)
		e.enhanceHeadings(frag, doc, res)
	})

	e.logger.Debug("片段增强完成",
		zap.String("node", frag.ID()),
		zap.Int("code_blocks", len(res.CopyButtons)),
		zap.Int("tables", res.Tables),
		zap.Int("images", len(res.Images)),
		zap.Int("headings", len(res.Headings)),
	)
	return res
}

// EnhanceHTML 解析并增强一段 HTML
func (e *Enhancer) EnhanceHTML(id, source string) (*Fragment, *Result, error) {
	frag, err := NewFragment(id, source)
	if err != nil {
		return nil, nil, err
	}
	return frag, e.Enhance(frag), nil
}

// headingRegistryFor 为已有锚点的标题预先登记 ID
func headingRegistryFor(doc *goquery.Selection) *anchor.Registry {
	reg := anchor.NewRegistry()
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if s.Find("a.heading-anchor").Length() == 0 {
			return
		}
		if id, ok := s.Attr("id"); ok && id != "" {
			reg.Put([]byte(id))
		}
	})
	return reg
}

// Release 取消所有控件待执行的反馈恢复，片段被替换时调用
func (r *Result) Release() {
	for _, b := range r.CopyButtons {
		b.fb.stop()
	}
	for _, h := range r.Headings {
		h.fb.stop()
	}
}
