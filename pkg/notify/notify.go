// Package notify 定义核心向外部报告成功或错误状态的通知契约
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Severity 通知级别
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String 返回级别名称
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Notifier 由外部实现，核心只调用它，从不自己渲染提示界面
type Notifier interface {
	Notify(nodeID, message string, severity Severity)
}

// NotifierFunc 将普通函数适配为 Notifier
type NotifierFunc func(nodeID, message string, severity Severity)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(nodeID, message string, severity Severity) {
	f(nodeID, message, severity)
}

// Nop 丢弃所有通知
var Nop Notifier = NotifierFunc(func(string, string, Severity) {})

// OrNop 在 n 为 nil 时返回 Nop
func OrNop(n Notifier) Notifier {
	if n == nil {
		return Nop
	}
	return n
}

// LogNotifier 把通知写入日志
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify 实现 Notifier
func (n *LogNotifier) Notify(nodeID, message string, severity Severity) {
	fields := []zap.Field{zap.String("node", nodeID), zap.String("severity", severity.String())}
	switch severity {
	case SeverityError:
		n.logger.Error(message, fields...)
	case SeverityWarning:
		n.logger.Warn(message, fields...)
	default:
		n.logger.Info(message, fields...)
	}
}

// ConsoleNotifier 以彩色文本输出通知，供命令行使用
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier 创建控制台通知器
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Notify 实现 Notifier
func (n *ConsoleNotifier) Notify(nodeID, message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := severityColor(severity)
	prefix := c.Sprintf("[%s]", severity)
	if nodeID != "" {
		fmt.Fprintf(n.w, "%s %s: %s\n", prefix, nodeID, message)
		return
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, message)
}

func severityColor(severity Severity) *color.Color {
	switch severity {
	case SeveritySuccess:
		return color.New(color.FgGreen, color.Bold)
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	case SeverityError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// Message 一条已记录的通知
type Message struct {
	NodeID   string
	Text     string
	Severity Severity
}

// Recorder 记录收到的通知，便于测试和批量展示
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder 创建记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify 实现 Notifier
func (r *Recorder) Notify(nodeID, message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{NodeID: nodeID, Text: message, Severity: severity})
}

// Messages 返回已记录通知的副本
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last 返回最后一条通知
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Count 统计指定级别的通知数量
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Severity == severity {
			n++
		}
	}
	return n
}
