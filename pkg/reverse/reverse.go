// Package reverse 把旧版题目中的简单 HTML 转换回 Markdown
//
// 这是一次性导入工具，只识别有限的几种标签，不会用于渲染结果的往返转换。
package reverse

import (
	"strconv"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultImageAlt 图片缺少 alt 时使用的文字
const DefaultImageAlt = "image"

// attrs 匹配标签名之后的属性部分，保证 <b> 不会匹配 <br>
const attrs = `(?:\s[^>]*)?`

func mustCompile(pattern string) *regexp2.Regexp {
	return regexp2.MustCompile(pattern, regexp2.ECMAScript)
}

var (
	codeBlockRe  = mustCompile(`<pre` + attrs + `>\s*<code(` + attrs + `)>([\s\S]*?)</code>\s*</pre>`)
	headingRe    = mustCompile(`<h([1-6])` + attrs + `>([\s\S]*?)</h\1>`)
	paragraphRe  = mustCompile(`<p` + attrs + `>([\s\S]*?)</p>`)
	strongRe     = mustCompile(`<(strong|b)` + attrs + `>([\s\S]*?)</\1>`)
	emphasisRe   = mustCompile(`<(em|i)` + attrs + `>([\s\S]*?)</\1>`)
	strikeRe     = mustCompile(`<(del|s|strike)` + attrs + `>([\s\S]*?)</\1>`)
	linkRe       = mustCompile(`<a\s[^>]*?href="([^"]*)"[^>]*>([\s\S]*?)</a>`)
	imageRe      = mustCompile(`<img(` + attrs + `)/?>`)
	listRe       = mustCompile(`<(ul|ol)` + attrs + `>([\s\S]*?)</\1>`)
	listItemRe   = mustCompile(`<li` + attrs + `>([\s\S]*?)</li>`)
	inlineCodeRe = mustCompile(`<code` + attrs + `>([\s\S]*?)</code>`)
	breakRe      = mustCompile(`<br\s*/?>`)
	leftoverRe   = mustCompile(`</?(?:div|span|section|article|blockquote|table|thead|tbody|tr|th|td|ul|ol|li|p|pre|code|h[1-6]|strong|b|em|i|del|s|strike|a|img|br|hr|input)` + attrs + `/?>`)
	newlinesRe   = mustCompile(`\n{3,}`)

	srcAttrRe      = mustCompile(`\ssrc="([^"]*)"`)
	altAttrRe      = mustCompile(`\salt="([^"]*)"`)
	languageAttrRe = mustCompile(`language-([\w+#.-]+)`)
)

type rule struct {
	name string
	re   *regexp2.Regexp
	repl string
	eval regexp2.MatchEvaluator
}

var rules = []rule{
	// 代码块最先处理，避免 <pre> 被当作段落、<code> 被当作行内代码
	{name: "code block", re: codeBlockRe, eval: codeBlock},
	{name: "heading", re: headingRe, eval: heading},
	{name: "paragraph", re: paragraphRe, repl: "$1\n\n"},
	{name: "strong", re: strongRe, repl: "**$2**"},
	{name: "emphasis", re: emphasisRe, repl: "*$2*"},
	{name: "strike", re: strikeRe, repl: "~~$2~~"},
	{name: "link", re: linkRe, repl: "[$2]($1)"},
	{name: "image", re: imageRe, eval: image},
	{name: "list", re: listRe, eval: list},
	{name: "inline code", re: inlineCodeRe, repl: "`$1`"},
	{name: "break", re: breakRe, repl: "\n"},
	{name: "leftover tags", re: leftoverRe, repl: ""},
}

// Options 转换选项
type Options struct {
	Normalize bool // 使用 markdownfmt 重新排版结果
}

// Converter HTML 转 Markdown 转换器
type Converter struct {
	opts   Options
	logger *zap.Logger
}

// New 创建转换器
func New(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, logger: logger}
}

// Convert 转换 HTML，某条规则出错时跳过该规则继续
func (c *Converter) Convert(source string) string {
	text := source
	for _, r := range rules {
		var (
			out string
			err error
		)
		if r.eval != nil {
			out, err = r.re.ReplaceFunc(text, r.eval, -1, -1)
		} else {
			out, err = r.re.Replace(text, r.repl, -1, -1)
		}
		if err != nil {
			c.logger.Warn("反向转换规则失败", zap.String("rule", r.name), zap.Error(err))
			continue
		}
		text = out
	}

	text = html.UnescapeString(text)
	if out, err := newlinesRe.Replace(text, "\n\n", -1, -1); err == nil {
		text = out
	}
	text = strings.TrimSpace(text)

	if c.opts.Normalize && text != "" {
		text = c.normalize(text)
	}
	return text
}

func (c *Converter) normalize(text string) string {
	formatted, err := markdownfmt.Process("", []byte(text), markdown.WithSoftWraps())
	if err != nil {
		c.logger.Warn("Markdown 排版失败，保留原结果", zap.Error(err))
		return text
	}
	return strings.TrimSpace(string(formatted))
}

func group(m regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil {
		return ""
	}
	return g.String()
}

func findAttr(re *regexp2.Regexp, s string) (string, bool) {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return "", false
	}
	return group(*m, 1), true
}

func codeBlock(m regexp2.Match) string {
	lang, _ := findAttr(languageAttrRe, group(m, 1))
	body := strings.TrimRight(group(m, 2), "\n")
	return "```" + lang + "\n" + body + "\n```\n\n"
}

func heading(m regexp2.Match) string {
	level, err := strconv.Atoi(group(m, 1))
	if err != nil {
		level = 1
	}
	return strings.Repeat("#", level) + " " + strings.TrimSpace(group(m, 2)) + "\n\n"
}

func image(m regexp2.Match) string {
	tag := group(m, 1)
	src, ok := findAttr(srcAttrRe, tag)
	if !ok {
		return ""
	}
	alt, _ := findAttr(altAttrRe, tag)
	if strings.TrimSpace(alt) == "" {
		alt = DefaultImageAlt
	}
	return "![" + alt + "](" + src + ")"
}

func list(m regexp2.Match) string {
	ordered := group(m, 1) == "ol"

	var items []string
	for im, _ := listItemRe.FindStringMatch(group(m, 2)); im != nil; im, _ = listItemRe.FindNextMatch(im) {
		items = append(items, strings.TrimSpace(group(*im, 1)))
	}
	if len(items) == 0 {
		return m.String()
	}

	var b strings.Builder
	for i, item := range items {
		if ordered {
			b.WriteString(strconv.Itoa(i+1) + ". ")
		} else {
			b.WriteString("- ")
		}
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
