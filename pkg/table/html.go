package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FromHTML 读取 HTML 中第一个表格的单元格文本
//
// 表格可以是可编辑的构建器表格，也可以是渲染后的表格。行数据不会被修补，
// 列数不一致的表格由 Validate 报告。
func FromHTML(r io.Reader) (Grid, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse table HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var g Grid
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// 嵌套表格的行属于内层表格
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var row []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		g = append(g, row)
	})

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
