// Package table 在可视化表格网格和 Markdown 表格之间转换
package table

import (
	"fmt"
)

const (
	DefaultRows = 3
	DefaultCols = 3
)

// Grid 表格单元格，第一行总是表头
type Grid [][]string

// New 创建带默认文字的网格：表头为 "Header N"，其余为 "Cell R-C"
func New(rows, cols int) (Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}

	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]string, cols)
		for c := range g[r] {
			if r == 0 {
				g[r][c] = fmt.Sprintf("Header %d", c+1)
			} else {
				g[r][c] = fmt.Sprintf("Cell %d-%d", r, c+1)
			}
		}
	}
	return g, nil
}

// Rows 返回行数
func (g Grid) Rows() int {
	return len(g)
}

// Cols 返回表头列数
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Validate 检查网格非空且每行列数相同
func (g Grid) Validate() error {
	if len(g) == 0 {
		return ErrEmptyGrid
	}
	cols := len(g[0])
	for i, row := range g {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrRaggedGrid, i, len(row), cols)
		}
	}
	return nil
}

// Clone 深拷贝网格
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}
