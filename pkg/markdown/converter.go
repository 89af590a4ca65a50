// Package markdown 把受限的 Markdown 方言转换为 HTML
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nerdneilsfield/quizmark/pkg/anchor"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// DefaultPlaceholder 空内容时显示的文本
const DefaultPlaceholder = "no content"

// Options 转换器选项
type Options struct {
	Math        bool   // 启用 $...$ / $$...$$ 公式
	FrontMatter bool   // 解析 YAML front matter
	HardWraps   bool   // 软换行按 <br> 输出
	Sanitize    bool   // 使用 bluemonday 清理输出
	Placeholder string // 空内容占位文本
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Sanitize:    true,
		Placeholder: DefaultPlaceholder,
	}
}

// Converter Markdown 转 HTML 转换器
type Converter struct {
	md          goldmark.Markdown
	policy      *bluemonday.Policy
	placeholder string
	frontMatter bool
}

// NewConverter 创建转换器
func NewConverter(opts Options) *Converter {
	extensions := []goldmark.Extender{
		extension.GFM, // 表格、任务列表、删除线、自动链接
	}
	if opts.Math {
		extensions = append(extensions, mathjax.MathJax)
	}
	if opts.FrontMatter {
		extensions = append(extensions, meta.Meta)
	}

	rendererOptions := []goldmark.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(gmhtml.WithHardWraps()))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOptions...)...)

	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	c := &Converter{
		md:          md,
		placeholder: placeholder,
		frontMatter: opts.FrontMatter,
	}
	if opts.Sanitize {
		c.policy = newPolicy()
	}
	return c
}

// IsEmpty 判断源文本是否应显示为"无内容"
func IsEmpty(source string) bool {
	return strings.TrimSpace(source) == ""
}

// Placeholder 返回空内容占位 HTML
func (c *Converter) Placeholder() string {
	return `<p class="markdown-empty">` + html.EscapeString(c.placeholder) + `</p>`
}

// Convert 将 Markdown 转换为 HTML
func (c *Converter) Convert(source string) (string, error) {
	out, _, err := c.convert(source)
	return out, err
}

// ConvertWithMeta 转换并返回 front matter（未启用时为 nil）
func (c *Converter) ConvertWithMeta(source string) (string, map[string]interface{}, error) {
	return c.convert(source)
}

func (c *Converter) convert(source string) (out string, metadata map[string]interface{}, err error) {
	if IsEmpty(source) {
		return c.Placeholder(), nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out, metadata = "", nil
			err = &ConversionError{Reason: "panic during conversion", Err: fmt.Errorf("%v", r)}
		}
	}()

	ctx := parser.NewContext(parser.WithIDs(anchor.NewRegistry()))

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf, parser.WithContext(ctx)); err != nil {
		return "", nil, &ConversionError{Reason: "goldmark convert", Err: err}
	}

	if c.frontMatter {
		metadata = meta.Get(ctx)
	}

	result := buf.String()
	if c.policy != nil {
		result = c.policy.Sanitize(result)
	}
	if strings.TrimSpace(result) == "" {
		// 只有 front matter 或被清理为空时仍给出占位
		result = c.Placeholder()
	}
	return result, metadata, nil
}

// Degrade 生成转换失败时的降级展示：原文原样显示在错误标记块中
func Degrade(source string, err error) string {
	var b strings.Builder
	b.WriteString(`<div class="markdown-error text-danger" data-render-error="true"`)
	if err != nil {
		b.WriteString(` title="`)
		b.WriteString(html.EscapeString(err.Error()))
		b.WriteString(`"`)
	}
	b.WriteString(`><pre>`)
	b.WriteString(html.EscapeString(source))
	b.WriteString(`</pre></div>`)
	return b.String()
}

// HTMLConverter 抽象出 Convert 方法，便于替换实现
type HTMLConverter interface {
	Convert(source string) (string, error)
}

// ConvertOrDegrade 是调用方的保护层：转换失败时记录日志并返回降级内容，从不返回错误
func ConvertOrDegrade(c HTMLConverter, source string, logger *zap.Logger) (out string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			err := &ConversionError{Reason: "panic in converter", Err: fmt.Errorf("%v", r)}
			logConversionFailure(logger, source, err)
			out, failed = Degrade(source, err), true
		}
	}()

	rendered, err := c.Convert(source)
	if err != nil {
		logConversionFailure(logger, source, err)
		return Degrade(source, err), true
	}
	return rendered, false
}

func logConversionFailure(logger *zap.Logger, source string, err error) {
	if logger == nil {
		return
	}
	logger.Error("Markdown 渲染失败", zap.Int("source_length", len(source)), zap.Error(err))
}

var allowedClasses = regexp.MustCompile(`^(?:(?:language-[\w+#.-]+|math|inline|display|contains-task-list|task-list-item)\s*)+$`)

// newPolicy 构建允许转换结果所需元素的清理策略
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// 图片允许 data URL（本地选择的图片以 data URL 内嵌）
	p.AllowDataURIImages()

	// 标题锚点
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	// 代码语言、公式和任务列表的 class
	p.AllowAttrs("class").Matching(allowedClasses).OnElements("code", "span", "div", "ul", "li", "pre")

	p.AllowElements("span", "div")

	// 任务列表复选框
	p.AllowElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	return p
}
