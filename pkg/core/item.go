package core

import (
	"errors"
	"fmt"

	"github.com/nerdneilsfield/quizmark/pkg/editor"
)

// Field 题目的一个字段
type Field string

const (
	FieldQuestion    Field = "question"
	FieldAnswer      Field = "answer"
	FieldExplanation Field = "explanation"
)

// Fields 按显示顺序返回全部字段
func Fields() []Field {
	return []Field{FieldQuestion, FieldAnswer, FieldExplanation}
}

// ErrEmptyItemID 题目 ID 为空
var ErrEmptyItemID = errors.New("empty item id")

// Item 一道题目，每个字段是独立的内容节点
type Item struct {
	ID          string `toml:"id"`
	Question    string `toml:"question"`
	Answer      string `toml:"answer"`
	Explanation string `toml:"explanation"`
}

// Text 返回字段文本
func (it Item) Text(f Field) string {
	switch f {
	case FieldQuestion:
		return it.Question
	case FieldAnswer:
		return it.Answer
	case FieldExplanation:
		return it.Explanation
	default:
		return ""
	}
}

// NodeID 返回字段对应的内容节点 ID
func NodeID(itemID string, f Field) string {
	return itemID + "-" + string(f)
}

// EditorID 返回内容节点对应的编辑源 ID
func EditorID(nodeID string) string {
	return nodeID + "-editor"
}

// AddItem 为题目的每个字段登记内容节点和编辑源
func (c *Core) AddItem(it Item) error {
	if it.ID == "" {
		return ErrEmptyItemID
	}

	var nodes, sources []string
	rollback := func() {
		for _, id := range sources {
			_ = c.workspace.Remove(id)
		}
		for _, id := range nodes {
			_ = c.scheduler.Remove(id)
		}
	}

	for _, f := range Fields() {
		nodeID := NodeID(it.ID, f)
		text := it.Text(f)
		if err := c.scheduler.Add(nodeID, text); err != nil {
			rollback()
			return fmt.Errorf("failed to add item %s: %w", it.ID, err)
		}
		nodes = append(nodes, nodeID)

		if err := c.workspace.Add(editor.NewSource(EditorID(nodeID), nodeID, text)); err != nil {
			rollback()
			return fmt.Errorf("failed to add editor for %s: %w", nodeID, err)
		}
		sources = append(sources, EditorID(nodeID))
	}
	return nil
}

// RemoveItem 删除题目的全部节点和编辑源
func (c *Core) RemoveItem(itemID string) error {
	var errs []error
	for _, f := range Fields() {
		nodeID := NodeID(itemID, f)
		if err := c.scheduler.Remove(nodeID); err != nil {
			errs = append(errs, err)
		}
		if err := c.workspace.Remove(EditorID(nodeID)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ItemHTML 返回题目各字段已提交的 HTML
func (c *Core) ItemHTML(itemID string) map[Field]string {
	out := make(map[Field]string, 3)
	for _, f := range Fields() {
		if snap, ok := c.scheduler.Node(NodeID(itemID, f)); ok {
			out[f] = snap.HTML
		}
	}
	return out
}
