package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/quizmark/pkg/core"
	"github.com/nerdneilsfield/quizmark/pkg/enhance"
)

// printEnhanceStats 以表格输出增强统计
func printEnhanceStats(w io.Writer, res *enhance.Result, metadata map[string]interface{}) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"项", "数量"})
	for _, s := range res.Summary() {
		tw.AppendRow(table.Row{s.Name, s.Count})
	}

	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		tw.AppendSeparator()
		for _, k := range keys {
			tw.AppendRow(table.Row{"meta: " + k, fmt.Sprint(metadata[k])})
		}
	}

	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// printItemStats 以表格输出每道题各字段的渲染状态
func printItemStats(w io.Writer, c *core.Core, items []core.Item) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"题目", "字段", "状态", "失败"})

	failed := 0
	for _, it := range items {
		for _, f := range core.Fields() {
			snap, ok := c.Node(core.NodeID(it.ID, f))
			if !ok {
				continue
			}
			if snap.Failed {
				failed++
			}
			tw.AppendRow(table.Row{it.ID, string(f), snap.State.String(), snap.Failed})
		}
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d 道题", len(items)), failed})

	tw.SetStyle(table.StyleLight)
	tw.Render()
}
