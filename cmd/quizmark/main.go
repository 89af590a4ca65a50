package main

import (
	"os"
	"strconv"

	"github.com/nerdneilsfield/quizmark/internal/cli"
	"github.com/nerdneilsfield/quizmark/internal/logger"
	"go.uber.org/zap"
)

// 构建时通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// 配置加载前的错误也按 QUIZMARK_DEBUG 输出调试日志
	debug, _ := strconv.ParseBool(os.Getenv("QUIZMARK_DEBUG"))
	log := logger.NewLogger(debug).Named("quizmark")
	defer func() {
		_ = log.Sync()
	}()

	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	if err := rootCmd.Execute(); err != nil {
		log.Error("quizmark 执行失败",
			zap.Strings("args", os.Args[1:]),
			zap.String("version", Version),
			zap.Error(err))
		os.Exit(1)
	}
}

