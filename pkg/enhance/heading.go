package enhance

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nerdneilsfield/quizmark/pkg/anchor"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const headingAnchorClass = "heading-anchor"

// HeadingAnchor 标题锚点链接控制器
type HeadingAnchor struct {
	e       *Enhancer
	frag    *Fragment
	heading *html.Node
	link    *html.Node
	id      string
	visible bool
	fb      feedback
}

func anchorStyle(visible bool) string {
	opacity := "0"
	if visible {
		opacity = "1"
	}
	return "margin-left: 0.5rem; opacity: " + opacity +
		"; transition: opacity 0.2s ease; text-decoration: none; color: #666;"
}

func (e *Enhancer) enhanceHeadings(frag *Fragment, doc *goquery.Selection, res *Result) {
	reg := headingRegistryFor(doc)

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		heading := s.Get(0)

		if link := childWithClass(heading, atom.A, headingAnchorClass); link != nil {
			id, _ := getAttr(heading, "id")
			res.Headings = append(res.Headings, &HeadingAnchor{
				e: e, frag: frag, heading: heading, link: link, id: id,
			})
			return
		}

		base := anchor.ID(strings.TrimSpace(s.Text()))
		if base == "" {
			// 转换器可能留下空 id
			removeAttr(heading, "id")
			return
		}
		id := reg.Unique(base)
		setAttr(heading, "id", id)

		link := newElement(atom.A,
			attr("href", "#"+id),
			attr("class", headingAnchorClass),
			attr("title", e.opts.Labels.AnchorTitle),
			attr("style", anchorStyle(false)),
		)
		setText(link, e.opts.Labels.AnchorGlyph)
		heading.AppendChild(link)

		res.Headings = append(res.Headings, &HeadingAnchor{
			e: e, frag: frag, heading: heading, link: link, id: id,
		})
	})
}

// ID 返回标题锚点 ID
func (a *HeadingAnchor) ID() string {
	return a.id
}

// URL 返回完整页面地址加锚点
func (a *HeadingAnchor) URL() string {
	page := a.e.opts.PageURL
	if page == nil {
		return "#" + a.id
	}
	u := *page
	u.RawQuery = ""
	u.Fragment = a.id
	u.RawFragment = ""
	return u.String()
}

// Hover 鼠标移入时显示，移出时隐藏
func (a *HeadingAnchor) Hover(on bool) {
	a.frag.with(func() {
		a.visible = on
		setAttr(a.link, "style", anchorStyle(on))
	})
}

// Visible 锚点是否可见
func (a *HeadingAnchor) Visible() bool {
	var v bool
	a.frag.with(func() { v = a.visible })
	return v
}

// Glyph 返回锚点当前图标
func (a *HeadingAnchor) Glyph() string {
	var g string
	a.frag.with(func() { g = textContent(a.link) })
	return g
}

// Activate 复制标题链接到剪贴板，成功时临时显示确认图标
func (a *HeadingAnchor) Activate(ctx context.Context) error {
	if err := a.e.clipboard.WriteText(ctx, a.URL()); err != nil {
		a.e.logger.Warn("复制链接失败", zap.String("node", a.frag.ID()), zap.String("anchor", a.id), zap.Error(err))
		a.e.notifier.Notify(a.frag.ID(), "heading link unavailable: "+err.Error(), notify.SeverityWarning)
		return err
	}

	labels := a.e.opts.Labels
	a.fb.flash(a.frag, a.e.opts.FeedbackDelay,
		func() { setText(a.link, labels.AnchorDone) },
		func() { setText(a.link, labels.AnchorGlyph) },
	)
	return nil
}
