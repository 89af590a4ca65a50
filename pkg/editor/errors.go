package editor

import "errors"

var (
	// ErrNoEditor 没有获得焦点或可见的编辑源
	ErrNoEditor = errors.New("no editor available")
	// ErrUnknownSource 编辑源不存在
	ErrUnknownSource = errors.New("unknown edit source")
	// ErrDuplicateSource 编辑源 ID 已被注册
	ErrDuplicateSource = errors.New("duplicate edit source")
)
