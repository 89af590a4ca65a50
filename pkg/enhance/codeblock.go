package enhance

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	copyButtonClass = "copy-code-btn"
	copyIdleClass   = "copy-code-btn btn btn-sm btn-primary"
	copyDoneClass   = "copy-code-btn btn btn-sm btn-success"
	copyFailClass   = "copy-code-btn btn btn-sm btn-danger"
)

// CopyButton 代码块的复制按钮控制器
type CopyButton struct {
	e      *Enhancer
	frag   *Fragment
	code   *html.Node
	button *html.Node
	fb     feedback
}

func (e *Enhancer) enhanceCodeBlocks(frag *Fragment, doc *goquery.Selection, res *Result) {
	doc.Find("pre > code").Each(func(_ int, s *goquery.Selection) {
		code := s.Get(0)
		pre := code.Parent

		button := childWithClass(pre, atom.Button, copyButtonClass)
		if button == nil {
			button = newElement(atom.Button,
				attr("type", "button"),
				attr("class", copyIdleClass),
				attr("title", e.opts.Labels.CopyTitle),
			)
			setText(button, e.opts.Labels.Copy)
			pre.AppendChild(button)
			setAttr(pre, "style", "position: relative;")
		}

		res.CopyButtons = append(res.CopyButtons, &CopyButton{
			e:      e,
			frag:   frag,
			code:   code,
			button: button,
		})
	})
}

// Label 返回按钮当前文字
func (b *CopyButton) Label() string {
	var label string
	b.frag.with(func() { label = textContent(b.button) })
	return label
}

// Code 返回代码块文本
func (b *CopyButton) Code() string {
	var code string
	b.frag.with(func() { code = textContent(b.code) })
	return code
}

// Copy 复制代码到剪贴板，并在 FeedbackDelay 内显示结果
func (b *CopyButton) Copy(ctx context.Context) error {
	err := b.e.clipboard.WriteText(ctx, b.Code())

	labels := b.e.opts.Labels
	label, class := labels.Copied, copyDoneClass
	if err != nil {
		label, class = labels.Failed, copyFailClass
		b.e.logger.Warn("复制代码失败", zap.String("node", b.frag.ID()), zap.Error(err))
		b.e.notifier.Notify(b.frag.ID(), "copy failed: "+err.Error(), notify.SeverityWarning)
	}

	b.fb.flash(b.frag, b.e.opts.FeedbackDelay,
		func() {
			setText(b.button, label)
			setAttr(b.button, "class", class)
		},
		func() {
			setText(b.button, labels.Copy)
			setAttr(b.button, "class", copyIdleClass)
		},
	)
	return err
}

// Click 以异步方式触发复制，错误已在 Copy 中处理
func (b *CopyButton) Click() {
	go func() {
		_ = b.Copy(context.Background())
	}()
}
