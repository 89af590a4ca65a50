package table

import (
	"fmt"
	"sync"
)

// Session 表格工具的生命周期对象，持有正在编辑的网格
type Session struct {
	mu     sync.Mutex
	grid   Grid
	closed bool
}

// NewSession 以指定形状创建会话
func NewSession(rows, cols int) (*Session, error) {
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	return &Session{grid: g}, nil
}

// Regenerate 整体替换网格，已编辑的内容会被丢弃
func (s *Session) Regenerate(rows, cols int) error {
	g, err := New(rows, cols)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.grid = g
	return nil
}

// SetCell 修改单元格
func (s *Session) SetCell(row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if row < 0 || row >= len(s.grid) || col < 0 || col >= len(s.grid[row]) {
		return fmt.Errorf("%w: cell (%d, %d) outside %dx%d", ErrInvalidShape, row, col, s.grid.Rows(), s.grid.Cols())
	}
	s.grid[row][col] = value
	return nil
}

// Grid 返回网格副本
func (s *Session) Grid() Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Markdown 返回当前网格的 Markdown
func (s *Session) Markdown() (string, error) {
	return ToMarkdown(s.Grid())
}

// Close 关闭会话并释放网格
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.grid = nil
}
