// Package anchor 实现标题锚点 ID 的生成规则
package anchor

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackID 是 Unique 在 base 为空时使用的 ID
const FallbackID = "heading"

var lower = cases.Lower(language.Und)

// ID 根据标题文本计算锚点 ID
//
// 规则：转小写，去掉字母、数字、下划线、空白和连字符之外的字符，
// 连续空白折叠为一个连字符，连续连字符再折叠为一个。
func ID(text string) string {
	text = lower.String(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		case r == '-', r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			// 丢弃的字符不打断空白序列
			continue
		}
		inSpace = false
	}

	return collapseHyphens(b.String())
}

func collapseHyphens(s string) string {
	if !strings.Contains(s, "--") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prev := rune(0)
	for _, r := range s {
		if r == '-' && prev == '-' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// Registry 为同一文档内的标题分配唯一 ID
//
// 实现了 goldmark 的 parser.IDs 接口，重复的 ID 按出现顺序追加 -1、-2 后缀。
type Registry struct {
	seen map[string]struct{}
}

// NewRegistry 创建空的 ID 注册表
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Unique 返回 base 的唯一形式并登记
func (r *Registry) Unique(base string) string {
	if base == "" {
		base = FallbackID
	}
	id := base
	for i := 1; r.has(id); i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	r.seen[id] = struct{}{}
	return id
}

// Generate 实现 parser.IDs，没有可用文本的标题不分配 ID
func (r *Registry) Generate(value []byte, kind ast.NodeKind) []byte {
	base := ID(string(value))
	if base == "" {
		return nil
	}
	return []byte(r.Unique(base))
}

// Put 实现 parser.IDs，登记显式指定的 ID
func (r *Registry) Put(value []byte) {
	r.seen[string(value)] = struct{}{}
}

func (r *Registry) has(id string) bool {
	_, ok := r.seen[id]
	return ok
}
