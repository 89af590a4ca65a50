package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuin/goldmark/ast"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"标点被去除", "Hello, World!", "hello-world"},
		{"已是小写", "hello world", "hello-world"},
		{"连续空白", "a   b\tc", "a-b-c"},
		{"连续连字符", "a -- b", "a-b"},
		{"去除的字符不打断空白", "a , b", "a-b"},
		{"首尾空白", "  Title  ", "title"},
		{"中文标题", "第一题 解析", "第一题-解析"},
		{"保留下划线", "snake_case Name", "snake_case-name"},
		{"全部被去除", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ID(tt.in))
		})
	}
}

func TestIDIsStable(t *testing.T) {
	first := ID("Hello, World!")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ID("Hello, World!"))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "intro", r.Unique("intro"))
	assert.Equal(t, "intro-1", r.Unique("intro"))
	assert.Equal(t, "intro-2", r.Unique("intro"))
	assert.Equal(t, FallbackID, r.Unique(""))

	assert.Nil(t, r.Generate([]byte("  "), ast.KindHeading))
	assert.Nil(t, r.Generate([]byte("!!!"), ast.KindHeading))

	r.Put([]byte("custom"))
	assert.Equal(t, "custom-1", string(r.Generate([]byte("Custom"), ast.KindHeading)))
}
