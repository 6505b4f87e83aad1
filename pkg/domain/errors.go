package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindUnknownMimeType        ErrorKind = "UnknownMimeType"
	KindSourceUnavailable      ErrorKind = "SourceUnavailable"
	KindManifestStoreMissing   ErrorKind = "ManifestStoreMissing"
	KindNoActiveManifest       ErrorKind = "NoActiveManifest"
	KindManifestReadFailed     ErrorKind = "ManifestReadFailed"
	KindReportGenerationFailed ErrorKind = "ReportGenerationFailed"
	KindWindowOperationFailed  ErrorKind = "WindowOperationFailed"
	KindStaleResult            ErrorKind = "StaleResult"
)

// 哨兵错误，配合 errors.Is 按分类匹配
var (
	ErrUnknownMimeType        = &Error{Kind: KindUnknownMimeType}
	ErrSourceUnavailable      = &Error{Kind: KindSourceUnavailable}
	ErrManifestStoreMissing   = &Error{Kind: KindManifestStoreMissing}
	ErrNoActiveManifest       = &Error{Kind: KindNoActiveManifest}
	ErrManifestReadFailed     = &Error{Kind: KindManifestReadFailed}
	ErrReportGenerationFailed = &Error{Kind: KindReportGenerationFailed}
	ErrWindowOperationFailed  = &Error{Kind: KindWindowOperationFailed}
	ErrStaleResult            = &Error{Kind: KindStaleResult}
)

// Error 带分类的错误，Message 面向用户展示
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error { return e.Err }

// Is 按分类比较
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Errorf 构造分类错误
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind ErrorKind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	} else if err != nil {
		message = message + ": " + err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// AsError 将任意错误转换为分类错误，无法识别时归为读取失败
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Wrap(KindManifestReadFailed, err, "")
}

// KindOf 获取错误分类，非分类错误返回空
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
