package errs

import (
	"errors"
	"fmt"
	"strings"
)

// CodeError 错误码 + 描述, errors.Is 按错误码比较
type CodeError interface {
	error
	Code() int32
	Print(extras ...string) CodeError
	Printf(format string, args ...any) CodeError
	// Wrap 保留底层错误, errors.Is/As 可以继续向下匹配
	Wrap(cause error) CodeError
	Is(error) bool
}

func CreateCodeError(code int32, desc string) CodeError {
	return &codeError{code: code, desc: desc}
}

// WrapError 非CodeError包装为Unknown
func WrapError(err error) CodeError {
	if err == nil {
		return nil
	}
	var x *codeError
	if errors.As(err, &x) {
		return x
	}
	return Unknown.Wrap(err)
}

// CodeOf 取错误码, nil为ErrCode_OK
func CodeOf(err error) int32 {
	if err == nil {
		return ErrCode_OK
	}
	return WrapError(err).Code()
}

type codeError struct {
	code  int32
	desc  string // 如 INVALID_SIZE,size=-1
	cause error
}

func (e *codeError) Code() int32 {
	return e.code
}

func (e *codeError) Error() string {
	if e.cause == nil {
		return e.desc
	}
	return e.desc + ": " + e.cause.Error()
}

func (e *codeError) String() string {
	return fmt.Sprintf("errno: %d, desc: %s", e.code, e.Error())
}

func (e *codeError) Unwrap() error {
	return e.cause
}

func (e *codeError) derive(desc string, cause error) *codeError {
	return &codeError{code: e.code, desc: desc, cause: cause}
}

func (e *codeError) Print(extras ...string) CodeError {
	if len(extras) == 0 {
		return e
	}
	return e.derive(e.desc+","+strings.Join(extras, ","), e.cause)
}

func (e *codeError) Printf(format string, args ...any) CodeError {
	if len(format) == 0 {
		return e
	}
	return e.derive(e.desc+","+fmt.Sprintf(format, args...), e.cause)
}

func (e *codeError) Wrap(cause error) CodeError {
	if cause == nil {
		return e
	}
	return e.derive(e.desc, cause)
}

func (e *codeError) Is(target error) bool {
	if x, ok := target.(*codeError); ok {
		return x.code == e.code
	}
	return false
}
