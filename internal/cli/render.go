package cli

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/nerdneilsfield/quizmark/internal/config"
	"github.com/nerdneilsfield/quizmark/pkg/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCommand(o *rootOptions) *cobra.Command {
	var (
		output      string
		showStats   bool
		frontMatter bool
		math        bool
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "把 Markdown 渲染为增强后的 HTML 片段",
		Long: `读取 Markdown 文件（省略或为 "-" 时读取 stdin），输出转换、清理并增强后的 HTML。

Examples:
  quizmark render question.md
  echo '# Title' | quizmark render --stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			c, err := o.newCore(cmd, func(opts *core.Options) {
				opts.Markdown.FrontMatter = opts.Markdown.FrontMatter || frontMatter
				opts.Markdown.Math = opts.Markdown.Math || math
			})
			if err != nil {
				return err
			}

			out, res, err := c.RenderString("document", source)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, output, out); err != nil {
				return err
			}

			if showStats {
				var metadata map[string]interface{}
				if frontMatter || o.cfg.Markdown.FrontMatter {
					_, metadata, _ = c.ConvertWithMeta(source)
				}
				printEnhanceStats(cmd.ErrOrStderr(), res, metadata)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（默认 stdout）")
	cmd.Flags().BoolVar(&showStats, "stats", false, "在 stderr 输出增强统计")
	cmd.Flags().BoolVar(&frontMatter, "front-matter", false, "解析 YAML front matter")
	cmd.Flags().BoolVar(&math, "math", false, "启用 $...$ 公式")
	return cmd
}

func newItemCommand(o *rootOptions) *cobra.Command {
	var (
		output    string
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "item <file.toml>",
		Short: "渲染 TOML 题目文件",
		Long: `读取包含 [[item]] 表的 TOML 文件，每道题的题干、答案和解析分别渲染为独立的内容节点，
输出完整的 HTML 页面。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.LoadItems(args[0])
			if err != nil {
				return err
			}

			c, err := o.newCore(cmd, nil)
			if err != nil {
				return err
			}

			body, err := renderItems(cmd.Context(), c, file.Items)
			if err != nil {
				return err
			}

			title := file.Title
			if title == "" {
				title = args[0]
			}
			if err := writeOutput(cmd, output, htmlPage(title, body)); err != nil {
				return err
			}

			if showStats {
				printItemStats(cmd.ErrOrStderr(), c, file.Items)
			}
			o.log.Info("题目渲染完成", zap.String("file", args[0]), zap.Int("items", len(file.Items)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（默认 stdout）")
	cmd.Flags().BoolVar(&showStats, "stats", false, "在 stderr 输出每个字段的渲染状态")
	return cmd
}

// renderItems 登记并渲染全部题目，返回拼接后的 HTML
func renderItems(ctx context.Context, c *core.Core, items []core.Item) (string, error) {
	for _, it := range items {
		if err := c.AddItem(it); err != nil {
			return "", err
		}
	}
	if err := c.RenderAll(ctx); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "<section class=\"quiz-item\" data-item-id=\"%s\">\n", html.EscapeString(it.ID))
		fields := c.ItemHTML(it.ID)
		for _, f := range core.Fields() {
			fmt.Fprintf(&b, "<div class=\"quiz-field quiz-%s\" data-node-id=\"%s\">\n%s</div>\n",
				f, html.EscapeString(core.NodeID(it.ID, f)), fields[f])
		}
		b.WriteString("</section>\n")
	}
	return b.String(), nil
}

// htmlPage 把片段包装为完整页面
func htmlPage(title, body string) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" +
		html.EscapeString(title) + "</title>\n</head>\n<body>\n" + body + "</body>\n</html>\n"
}
