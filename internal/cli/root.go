package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nerdneilsfield/quizmark/internal/config"
	"github.com/nerdneilsfield/quizmark/internal/logger"
	"github.com/nerdneilsfield/quizmark/pkg/core"
	"github.com/nerdneilsfield/quizmark/pkg/enhance"
	"github.com/nerdneilsfield/quizmark/pkg/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions 全局标志
type rootOptions struct {
	cfgFile   string
	debugMode bool
	logLevel  string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "quizmark",
		Short: "题目编辑器的 Markdown 渲染与转换工具",
		Long: `quizmark 把题目的题干、答案和解析从受限的 Markdown 方言渲染为增强后的 HTML，
并提供表格生成、旧版 HTML 导入和文件监听渲染。`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	rootCmd.SetVersionTemplate("quizmark {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "配置文件路径 (默认 $HOME/.quizmark.yaml)")
	flags.BoolVar(&opts.debugMode, "debug", false, "启用调试日志")
	flags.StringVar(&opts.logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRenderCommand(opts),
		newItemCommand(opts),
		newWatchCommand(opts),
		newTableCommand(opts),
		newImportCommand(opts),
		newAnchorCommand(),
		newConfigCommand(opts),
	)
	return rootCmd
}

// load 读取配置并初始化日志
func (o *rootOptions) load() error {
	cfg, err := config.LoadConfig(o.cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if o.debugMode {
		cfg.Debug = true
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.log = log
	return nil
}

// newCore 按配置创建内核，通知输出到 stderr
func (o *rootOptions) newCore(cmd *cobra.Command, mutate func(*core.Options)) (*core.Core, error) {
	opts, err := o.cfg.CoreOptions()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&opts)
	}
	notifier := notify.NewConsoleNotifier(cmd.ErrOrStderr())
	return core.New(opts, enhance.SystemClipboard{}, notifier, o.log), nil
}

// readInput 读取文件参数，没有参数或参数为 "-" 时读取 stdin
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// writeOutput 写入 -o 指定的文件，未指定时写到 stdout
func writeOutput(cmd *cobra.Command, path, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
