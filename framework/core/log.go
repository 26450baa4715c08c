package core

import (
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/mlog"
)

// InitLog 配置了日志目录时写文件(zap+lumberjack), 否则只输出到标准输出
// 返回的函数在退出前调用
func InitLog(conf *config.AppConfig) (sync func() error, err error) {
	if conf.LogPath == "" {
		mlog.UseStdLogger(mlog.Level(conf.LogLevel))
		return func() error { return nil }, nil
	}
	return mlog.UseZapLogger(conf.ZapConfig())
}
