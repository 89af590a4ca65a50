package render

import (
	"github.com/nerdneilsfield/quizmark/pkg/enhance"
)

// State 内容节点的渲染状态
type State int

const (
	StateUnrendered State = iota
	StateRendering
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateUnrendered:
		return "unrendered"
	case StateRendering:
		return "rendering"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// Outcome 一次 Render 调用的结果
type Outcome int

const (
	OutcomeSkipped   Outcome = iota // 已渲染或同版本渲染进行中
	OutcomeCommitted                // 结果已提交
	OutcomeDiscarded                // 渲染期间文本已变化，结果被丢弃
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCommitted:
		return "committed"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// ContentNode 一个可渲染的内容节点
//
// version 在每次文本变化时递增，inflight 记录正在渲染的版本（0 表示没有）。
type ContentNode struct {
	id       string
	raw      string
	state    State
	version  uint64
	inflight uint64

	html     string
	fragment *enhance.Fragment
	result   *enhance.Result
	failed   bool
}

// Snapshot 内容节点某一时刻的只读视图
type Snapshot struct {
	ID       string
	RawText  string
	State    State
	Version  uint64
	HTML     string
	Failed   bool
	Fragment *enhance.Fragment // 已提交的片段，未渲染过时为 nil
	Result   *enhance.Result   // 已提交片段的控件
}

func (n *ContentNode) snapshot() Snapshot {
	return Snapshot{
		ID:       n.id,
		RawText:  n.raw,
		State:    n.state,
		Version:  n.version,
		HTML:     n.html,
		Failed:   n.failed,
		Fragment: n.fragment,
		Result:   n.result,
	}
}

// invalidate 文本变化后让节点重新可渲染
func (n *ContentNode) invalidate() {
	n.version++
	n.state = StateUnrendered
}
