package table

import "errors"

var (
	// ErrEmptyGrid 网格没有任何行
	ErrEmptyGrid = errors.New("table grid is empty")
	// ErrRaggedGrid 网格各行列数不一致
	ErrRaggedGrid = errors.New("table grid rows have different lengths")
	// ErrInvalidShape 行数或列数不合法
	ErrInvalidShape = errors.New("invalid table shape")
	// ErrNoTable HTML 中找不到表格
	ErrNoTable = errors.New("no table found in HTML")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("table session closed")
)
