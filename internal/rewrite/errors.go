package rewrite

import (
	"errors"
	"fmt"
)

// ErrParse 表示输入无法解析为 HTML 文档，是 Handle 唯一会向上抛出的错误。
var ErrParse = errors.New("html parse failed")

// ParseError 包装解析阶段的底层错误。
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("html parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
