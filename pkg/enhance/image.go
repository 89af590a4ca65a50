package enhance

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	overlayClass = "image-zoom-container"
	overlayStyle = "position: fixed; top: 0; left: 0; width: 100%; height: 100%; " +
		"background-color: rgba(0, 0, 0, 0.9); z-index: 10000; display: flex; " +
		"justify-content: center; align-items: center; cursor: pointer;"
	zoomedImageStyle = "max-width: 90%; max-height: 90%; object-fit: contain;"
)

// ZoomTrigger 图片的点击放大控制器
type ZoomTrigger struct {
	e    *Enhancer
	frag *Fragment
	img  *html.Node
}

func (e *Enhancer) enhanceImages(frag *Fragment, doc *goquery.Selection, res *Result) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img := s.Get(0)
		addClass(img, "img-fluid")
		if alt, _ := getAttr(img, "alt"); strings.TrimSpace(alt) == "" {
			setAttr(img, "alt", e.opts.Labels.ImageAlt)
		}
		setAttr(img, "data-zoomable", "true")

		res.Images = append(res.Images, &ZoomTrigger{e: e, frag: frag, img: img})
	})
}

// Source 返回图片地址
func (z *ZoomTrigger) Source() (src, alt string) {
	z.frag.with(func() {
		src, _ = getAttr(z.img, "src")
		alt, _ = getAttr(z.img, "alt")
	})
	return src, alt
}

// Open 打开全屏浮层显示图片
func (z *ZoomTrigger) Open() *Overlay {
	src, alt := z.Source()
	return z.e.overlays.Open(src, alt)
}

// Target 浮层上被点击的位置
type Target int

const (
	TargetBackdrop Target = iota // 浮层背景
	TargetImage                  // 浮层中的图片
)

// OverlayHost 承载放大浮层的视口层，同一时刻最多只有一个浮层
type OverlayHost struct {
	mu      sync.Mutex
	body    *html.Node
	current *Overlay
}

// NewOverlayHost 创建浮层宿主
func NewOverlayHost() *OverlayHost {
	return &OverlayHost{body: newElement(atom.Body)}
}

// Overlay 一个放大浮层
type Overlay struct {
	host *OverlayHost
	node *html.Node
	src  string
	alt  string
	open bool
}

// Open 创建浮层，已存在的浮层会先被关闭
func (h *OverlayHost) Open(src, alt string) *Overlay {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.closeLocked(h.current)
	}

	container := newElement(atom.Div, attr("class", overlayClass), attr("style", overlayStyle))
	container.AppendChild(newElement(atom.Img,
		attr("src", src),
		attr("alt", alt),
		attr("style", zoomedImageStyle),
	))
	h.body.AppendChild(container)

	o := &Overlay{host: h, node: container, src: src, alt: alt, open: true}
	h.current = o
	return o
}

// Active 返回当前打开的浮层
func (h *OverlayHost) Active() *Overlay {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Count 返回视口层中的浮层数量
func (h *OverlayHost) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := h.body.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, overlayClass) {
			n++
		}
	}
	return n
}

// HTML 序列化视口层
func (h *OverlayHost) HTML() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return renderChildren(h.body)
}

func (h *OverlayHost) closeLocked(o *Overlay) {
	if !o.open {
		return
	}
	o.open = false
	if o.node.Parent == h.body {
		h.body.RemoveChild(o.node)
	}
	if h.current == o {
		h.current = nil
	}
}

// Click 处理浮层上的点击，点击背景时关闭并返回 true
func (o *Overlay) Click(target Target) bool {
	if target != TargetBackdrop {
		return false
	}
	o.Close()
	return true
}

// Close 关闭并移除浮层
func (o *Overlay) Close() {
	o.host.mu.Lock()
	defer o.host.mu.Unlock()
	o.host.closeLocked(o)
}

// IsOpen 浮层是否仍在显示
func (o *Overlay) IsOpen() bool {
	o.host.mu.Lock()
	defer o.host.mu.Unlock()
	return o.open
}

// Source 返回浮层显示的图片
func (o *Overlay) Source() (src, alt string) {
	return o.src, o.alt
}
