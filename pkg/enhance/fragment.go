package enhance

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment 一段渲染后的 HTML 文档片段
//
// 片段的根节点是一个合成的 div，控件在计时器回调中修改节点，
// 所有读写都必须持有 mu。
type Fragment struct {
	mu   sync.Mutex
	id   string
	root *html.Node
}

// NewFragment 解析 HTML 字符串为片段，id 用于通知和日志
func NewFragment(id, source string) (*Fragment, error) {
	root := newElement(atom.Div)
	nodes, err := html.ParseFragment(strings.NewReader(source), root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Fragment{id: id, root: root}, nil
}

// ID 返回片段所属内容节点的 ID
func (f *Fragment) ID() string {
	return f.id
}

// HTML 序列化片段内容（不含合成的根节点）
func (f *Fragment) HTML() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return renderChildren(f.root)
}

// Text 返回片段的纯文本内容
func (f *Fragment) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return textContent(f.root)
}

// Find 在持有锁的情况下执行 goquery 查询
func (f *Fragment) Find(selector string, fn func(*goquery.Selection)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.selection().Find(selector))
}

func (f *Fragment) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(f.root).Selection
}

// with 在持有片段锁时执行 fn
func (f *Fragment) with(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// 写入 bytes.Buffer 不会失败
		_ = html.Render(&buf, c)
	}
	return buf.String()
}
