package render

import "errors"

var (
	// ErrUnknownNode 节点不存在
	ErrUnknownNode = errors.New("unknown content node")
	// ErrDuplicateNode 节点 ID 已被注册
	ErrDuplicateNode = errors.New("duplicate content node")
	// ErrEmptyNodeID 节点 ID 为空
	ErrEmptyNodeID = errors.New("empty content node id")
	// ErrWatcherStopped 监听器已停止，不再接收事件
	ErrWatcherStopped = errors.New("watcher stopped")
)
