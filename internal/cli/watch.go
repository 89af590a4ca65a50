package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nerdneilsfield/quizmark/pkg/core"
	"github.com/nerdneilsfield/quizmark/pkg/editor"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"github.com/nerdneilsfield/quizmark/pkg/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchNodeID = "document"

func newWatchCommand(o *rootOptions) *cobra.Command {
	var (
		output string
		once   bool
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "监听 Markdown 文件，每次保存后重新渲染",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			out := output
			if out == "" {
				out = o.cfg.Watch.Output
			}
			if out == "" {
				out = strings.TrimSuffix(input, ".md") + ".html"
			}

			sink := render.SinkFunc(func(nodeID, fragment string) {
				if err := os.WriteFile(out, []byte(htmlPage(input, fragment)), 0o644); err != nil {
					o.log.Error("写入渲染结果失败", zap.String("output", out), zap.Error(err))
					return
				}
				o.log.Info("已更新渲染结果", zap.String("node", nodeID), zap.String("output", out))
			})

			c, err := o.newCore(cmd, func(opts *core.Options) { opts.Sink = sink })
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fs, err := editor.NewFileSource(input, watchNodeID, func(nodeID, value string) {
				if err := c.OnTextChanged(nodeID, value); err != nil {
					o.log.Warn("投递文件变更失败", zap.Error(err))
				}
			}, notify.NewConsoleNotifier(cmd.ErrOrStderr()), o.log)
			if err != nil {
				return err
			}

			if once {
				return watchOnce(ctx, c, fs)
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- c.Run(runCtx) }()

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s -> %s\n", fs.Path(), out)
			err = fs.Run(runCtx)
			cancel()
			<-done
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出 HTML 文件（默认与输入同名的 .html）")
	cmd.Flags().BoolVar(&once, "once", false, "只渲染一次后退出")
	return cmd
}

// watchOnce 读取一次文件并等待渲染结果写出
func watchOnce(ctx context.Context, c *core.Core, fs *editor.FileSource) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()

	_, err := fs.Load()
	if err == nil {
		c.Sync()
	}
	cancel()
	<-done
	return err
}
