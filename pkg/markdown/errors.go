package markdown

import (
	"errors"
	"fmt"
)

// ErrConversion 标记转换失败
var ErrConversion = errors.New("markdown conversion failed")

// ConversionError 转换过程中的错误（包括被捕获的 panic）
type ConversionError struct {
	Reason string
	Err    error
}

// Error 实现 error 接口
func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConversion, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConversion, e.Reason)
}

// Unwrap 返回底层错误
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrConversion) 成立
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}
