package mlog

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

type Logger interface {
	Trace(v ...any)
	Debug(v ...any)
	Info(v ...any)
	Notice(v ...any)
	Warn(v ...any)
	Error(v ...any)
	Fatal(v ...any)

	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Noticef(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// levelLogger 实现后, 包级函数在格式化之前先过滤
type levelLogger interface {
	IsLevelEnabled(level Level) bool
}

type holder struct {
	Logger
}

// 分发线程和业务goroutine都会打日志, SetLogger可能与之并发
var current atomic.Pointer[holder]

func SetLogger(l Logger) {
	if l == nil {
		current.Store(nil)
		return
	}
	current.Store(&holder{l})
}

func get() Logger {
	if h := current.Load(); h != nil {
		return h.Logger
	}
	return nil
}

// IsLevelEnabled 热路径上先判断, 避免无用的参数格式化
func IsLevelEnabled(level Level) bool {
	return enabled(get(), level)
}

func enabled(l Logger, level Level) bool {
	if l == nil {
		return false
	}
	if ll, ok := l.(levelLogger); ok {
		return ll.IsLevelEnabled(level)
	}
	return true
}

func UseStdLogger(level Level) error {
	SetLogger(newStdoutLogger(level))
	return nil
}

type Level uint32

const (
	FatalLevel Level = iota
	ErrorLevel
	WarnLevel
	NoticeLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

var levelNames = [...]string{"fatal", "error", "warn", "notice", "info", "debug", "trace"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel 接受级别名(不区分大小写)或者数字
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > int(TraceLevel) {
		return 0, fmt.Errorf("mlog: unknown level %q", s)
	}
	return Level(n), nil
}

func logAt(level Level, a []any) {
	l := get()
	if !enabled(l, level) {
		return
	}
	switch level {
	case TraceLevel:
		l.Trace(a...)
	case DebugLevel:
		l.Debug(a...)
	case InfoLevel:
		l.Info(a...)
	case NoticeLevel:
		l.Notice(a...)
	case WarnLevel:
		l.Warn(a...)
	case ErrorLevel:
		l.Error(a...)
	case FatalLevel:
		l.Fatal(a...)
	}
}

func logfAt(level Level, format string, a []any) {
	l := get()
	if !enabled(l, level) {
		return
	}
	switch level {
	case TraceLevel:
		l.Tracef(format, a...)
	case DebugLevel:
		l.Debugf(format, a...)
	case InfoLevel:
		l.Infof(format, a...)
	case NoticeLevel:
		l.Noticef(format, a...)
	case WarnLevel:
		l.Warnf(format, a...)
	case ErrorLevel:
		l.Errorf(format, a...)
	case FatalLevel:
		l.Fatalf(format, a...)
	}
}

func Trace(a ...any) { logAt(TraceLevel, a) }
func Tracef(format string, a ...any) { logfAt(TraceLevel, format, a) }
func Debug(a ...any) { logAt(DebugLevel, a) }
func Debugf(format string, a ...any) { logfAt(DebugLevel, format, a) }
func Info(a ...any) { logAt(InfoLevel, a) }
func Infof(format string, a ...any) { logfAt(InfoLevel, format, a) }
func Notice(a ...any) { logAt(NoticeLevel, a) }
func Noticef(format string, a ...any) { logfAt(NoticeLevel, format, a) }
func Warn(a ...any) { logAt(WarnLevel, a) }
func Warnf(format string, a ...any) { logfAt(WarnLevel, format, a) }
func Error(a ...any) { logAt(ErrorLevel, a) }
func Errorf(format string, a ...any) { logfAt(ErrorLevel, format, a) }
func Fatal(a ...any) { logAt(FatalLevel, a) }
func Fatalf(format string, a ...any) { logfAt(FatalLevel, format, a) }
