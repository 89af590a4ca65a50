package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerdneilsfield/quizmark/internal/config"
	"github.com/nerdneilsfield/quizmark/pkg/anchor"
	"github.com/nerdneilsfield/quizmark/pkg/reverse"
	"github.com/nerdneilsfield/quizmark/pkg/table"
	"github.com/spf13/cobra"
)

func newTableCommand(o *rootOptions) *cobra.Command {
	var (
		rows     int
		cols     int
		fromHTML string
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "生成 Markdown 表格",
		Long: `按给定的行列数生成带占位内容的 Markdown 表格，或者把 HTML 文件中的第一个表格转换为 Markdown。

Examples:
  quizmark table --rows 3 --cols 2
  quizmark table --from-html legacy.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				grid table.Grid
				err  error
			)
			if fromHTML != "" {
				f, openErr := os.Open(fromHTML)
				if openErr != nil {
					return fmt.Errorf("failed to open %s: %w", fromHTML, openErr)
				}
				defer f.Close()
				grid, err = table.FromHTML(f)
			} else {
				grid, err = table.New(rows, cols)
			}
			if err != nil {
				return err
			}

			md, err := table.ToMarkdown(grid)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", md)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", table.DefaultRows, "行数（包含表头）")
	cmd.Flags().IntVar(&cols, "cols", table.DefaultCols, "列数")
	cmd.Flags().StringVar(&fromHTML, "from-html", "", "从 HTML 文件读取表格")
	return cmd
}

func newImportCommand(o *rootOptions) *cobra.Command {
	var (
		output    string
		normalize bool
	)

	cmd := &cobra.Command{
		Use:   "import [file.html]",
		Short: "把旧版 HTML 内容转换为 Markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			opts := reverse.Options{Normalize: o.cfg.Import.Normalize}
			if cmd.Flags().Changed("normalize") {
				opts.Normalize = normalize
			}
			conv := reverse.New(opts, o.log.Named("reverse"))
			return writeOutput(cmd, output, conv.Convert(source))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（默认 stdout）")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "用 markdownfmt 规范化输出")
	return cmd
}

func newAnchorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "anchor <text...>",
		Short: "打印标题文本对应的锚点 ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			id := anchor.ID(text)
			if id == "" {
				return fmt.Errorf("%q has no characters usable in an anchor", text)
			}
			return writeOutput(cmd, "", id)
		},
	}
}

func newConfigCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "管理配置文件",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写入默认配置",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".quizmark.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := config.SaveConfig(config.NewDefaultConfig(), path); err != nil {
				return fmt.Errorf("保存配置失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "配置已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "打印当前生效的配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.cfg
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
			fmt.Fprintf(w, "page_url: %s\n", c.PageURL)
			fmt.Fprintf(w, "markdown.math: %t\n", c.Markdown.Math)
			fmt.Fprintf(w, "markdown.front_matter: %t\n", c.Markdown.FrontMatter)
			fmt.Fprintf(w, "markdown.sanitize: %t\n", c.Markdown.Sanitize)
			fmt.Fprintf(w, "enhance.feedback_delay: %s\n", c.Enhance.FeedbackDelay)
			fmt.Fprintf(w, "upload.max_bytes: %d\n", c.Upload.MaxBytes)
			fmt.Fprintf(w, "import.normalize: %t\n", c.Import.Normalize)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
