// Package editor 提供带选区的文本编辑源和插入目标解析
package editor

import (
	"sync"
)

// Source 一个可编辑的文本源，绑定到一个内容节点
//
// 选区以 rune 为单位。
type Source struct {
	mu      sync.Mutex
	id      string
	nodeID  string
	value   []rune
	start   int
	end     int
	visible bool

	onChange func(nodeID, value string)
}

// NewSource 创建可见的编辑源，光标位于文本末尾
func NewSource(id, nodeID, value string) *Source {
	r := []rune(value)
	return &Source{
		id:      id,
		nodeID:  nodeID,
		value:   r,
		start:   len(r),
		end:     len(r),
		visible: true,
	}
}

// ID 返回编辑源 ID
func (s *Source) ID() string {
	return s.id
}

// NodeID 返回绑定的内容节点 ID
func (s *Source) NodeID() string {
	return s.nodeID
}

// Value 返回当前文本
func (s *Source) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.value)
}

// Selection 返回选区
func (s *Source) Selection() (start, end int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start, s.end
}

// Select 设置选区，越界时截断
func (s *Source) Select(start, end int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start, s.end = s.clamp(start), s.clamp(end)
	if s.start > s.end {
		s.start, s.end = s.end, s.start
	}
}

func (s *Source) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(s.value) {
		return len(s.value)
	}
	return i
}

// SetVisible 设置是否可见
func (s *Source) SetVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = v
}

// Visible 是否可见
func (s *Source) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// SetValue 替换全部文本，光标移到末尾
func (s *Source) SetValue(value string) {
	s.mu.Lock()
	s.value = []rune(value)
	s.start, s.end = len(s.value), len(s.value)
	s.mu.Unlock()
	s.changed()
}

// InsertAtCursor 用 text 替换选区，光标移到插入内容之后
func (s *Source) InsertAtCursor(text string) {
	s.mu.Lock()
	s.replaceSelection([]rune(text))
	s.mu.Unlock()
	s.changed()
}

// Append 在末尾追加文本，光标移到末尾
func (s *Source) Append(text string) {
	s.mu.Lock()
	s.value = append(s.value, []rune(text)...)
	s.start, s.end = len(s.value), len(s.value)
	s.mu.Unlock()
	s.changed()
}

// Wrap 用前后缀包裹选中文本，没有选中时插入 placeholder
func (s *Source) Wrap(prefix, suffix, placeholder string) {
	s.mu.Lock()
	selected := s.value[s.start:s.end]
	if len(selected) == 0 {
		selected = []rune(placeholder)
	}
	insert := make([]rune, 0, len(prefix)+len(selected)+len(suffix))
	insert = append(insert, []rune(prefix)...)
	insert = append(insert, selected...)
	insert = append(insert, []rune(suffix)...)

	s.replaceSelection(insert)
	// 光标停在被包裹文本之后、后缀之前
	s.start -= len([]rune(suffix))
	s.end = s.start
	s.mu.Unlock()
	s.changed()
}

func (s *Source) replaceSelection(insert []rune) {
	out := make([]rune, 0, len(s.value)-(s.end-s.start)+len(insert))
	out = append(out, s.value[:s.start]...)
	out = append(out, insert...)
	out = append(out, s.value[s.end:]...)

	cursor := s.start + len(insert)
	s.value = out
	s.start, s.end = cursor, cursor
}

func (s *Source) changed() {
	s.mu.Lock()
	fn, value := s.onChange, string(s.value)
	s.mu.Unlock()
	if fn != nil {
		fn(s.nodeID, value)
	}
}
