package mlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// writerLogger 没有配置日志目录时使用, 不改动标准库log的全局设置
type writerLogger struct {
	level Level
	out   *log.Logger
	exit  func(code int)
}

func newStdoutLogger(level Level) *writerLogger {
	return newWriterLogger(os.Stdout, level)
}

func newWriterLogger(w io.Writer, level Level) *writerLogger {
	return &writerLogger{
		level: level,
		out:   log.New(w, "", log.Ldate|log.Lmicroseconds),
		exit:  os.Exit,
	}
}

func (l *writerLogger) IsLevelEnabled(level Level) bool {
	return l.level >= level
}

func (l *writerLogger) output(level Level, msg string) {
	if !l.IsLevelEnabled(level) {
		return
	}
	_ = l.out.Output(3, "["+level.String()+"] "+msg)
	if level == FatalLevel {
		l.exit(1)
	}
}

func (l *writerLogger) Trace(v ...any) {
	l.output(TraceLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Tracef(format string, v ...any) {
	l.output(TraceLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Debug(v ...any) {
	l.output(DebugLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Debugf(format string, v ...any) {
	l.output(DebugLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Info(v ...any) {
	l.output(InfoLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Infof(format string, v ...any) {
	l.output(InfoLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Notice(v ...any) {
	l.output(NoticeLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Noticef(format string, v ...any) {
	l.output(NoticeLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Warn(v ...any) {
	l.output(WarnLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Warnf(format string, v ...any) {
	l.output(WarnLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Error(v ...any) {
	l.output(ErrorLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Errorf(format string, v ...any) {
	l.output(ErrorLevel, fmt.Sprintf(format, v...))
}

func (l *writerLogger) Fatal(v ...any) {
	l.output(FatalLevel, fmt.Sprint(v...))
}

func (l *writerLogger) Fatalf(format string, v ...any) {
	l.output(FatalLevel, fmt.Sprintf(format, v...))
}
