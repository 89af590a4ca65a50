package table

import (
	"strings"
)

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// ToMarkdown 将网格序列化为管道表格，表头后紧跟分隔行
func ToMarkdown(g Grid) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	writeRow(&b, g[0])

	b.WriteString("|")
	for range g[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range g[1:] {
		writeRow(&b, row)
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, row []string) {
	b.WriteString("|")
	for _, cell := range row {
		b.WriteString(" ")
		b.WriteString(cellEscaper.Replace(cell))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
