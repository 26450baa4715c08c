package mlog

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZapConfig struct {
	Path       string // 日志目录, 默认当前路径
	Name       string // 文件名, 不含后缀
	Level      Level
	StdOut     bool
	MaxSizeMB  int // 单个文件大小, 超过后轮转
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type zapLogger struct {
	sl    *zap.SugaredLogger
	level Level
}

// UseZapLogger 文件输出由lumberjack轮转, 返回的函数用于退出前刷盘
func UseZapLogger(conf *ZapConfig) (sync func() error, err error) {
	l, err := newZapLogger(conf)
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	return l.sl.Sync, nil
}

func newZapLogger(conf *ZapConfig) (*zapLogger, error) {
	logpath := conf.Path
	if len(logpath) == 0 {
		logpath = "."
	}
	if err := os.MkdirAll(logpath, 0755); err != nil {
		return nil, err
	}
	maxSize := conf.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(logpath, genLogName(conf.Name)),
		MaxSize:    maxSize,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAgeDays,
		Compress:   conf.Compress,
	}

	encConf := zap.NewProductionEncoderConfig()
	encConf.TimeKey = "ts"
	encConf.EncodeTime = zapcore.ISO8601TimeEncoder
	encConf.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encConf)

	lv := zap.NewAtomicLevelAt(zapLevel(conf.Level))
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(writer), lv)}
	if conf.StdOut {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lv))
	}
	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))
	return &zapLogger{sl: zl.Sugar(), level: conf.Level}, nil
}

// zap没有trace和notice, 分别归入debug和info
func zapLevel(level Level) zapcore.Level {
	switch level {
	case FatalLevel:
		return zapcore.FatalLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case NoticeLevel, InfoLevel:
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func genLogName(logName string) string {
	if logName == "" {
		logName = "mlog"
	}
	return logName + ".log"
}

func (l *zapLogger) IsLevelEnabled(level Level) bool {
	return l.level >= level
}

func (l *zapLogger) Trace(v ...any) {
	if l.IsLevelEnabled(TraceLevel) {
		l.sl.Debug(v...)
	}
}

func (l *zapLogger) Tracef(format string, v ...any) {
	if l.IsLevelEnabled(TraceLevel) {
		l.sl.Debugf(format, v...)
	}
}

func (l *zapLogger) Debug(v ...any) {
	l.sl.Debug(v...)
}

func (l *zapLogger) Debugf(format string, v ...any) {
	l.sl.Debugf(format, v...)
}

func (l *zapLogger) Info(v ...any) {
	l.sl.Info(v...)
}

func (l *zapLogger) Infof(format string, v ...any) {
	l.sl.Infof(format, v...)
}

func (l *zapLogger) Notice(v ...any) {
	if l.IsLevelEnabled(NoticeLevel) {
		l.sl.Info(v...)
	}
}

func (l *zapLogger) Noticef(format string, v ...any) {
	if l.IsLevelEnabled(NoticeLevel) {
		l.sl.Infof(format, v...)
	}
}

func (l *zapLogger) Warn(v ...any) {
	l.sl.Warn(v...)
}

func (l *zapLogger) Warnf(format string, v ...any) {
	l.sl.Warnf(format, v...)
}

func (l *zapLogger) Error(v ...any) {
	l.sl.Error(v...)
}

func (l *zapLogger) Errorf(format string, v ...any) {
	l.sl.Errorf(format, v...)
}

func (l *zapLogger) Fatal(v ...any) {
	l.sl.Fatal(v...)
}

func (l *zapLogger) Fatalf(format string, v ...any) {
	l.sl.Fatalf(format, v...)
}
