package clock

import "sync"

var (
	builtinClock *systemClock
	once         sync.Once
)

// System 进程内共享的系统时钟, 第一次调用时从0开始计数
func System() Clock {
	once.Do(func() {
		builtinClock = newSystemClock()
	})
	return builtinClock
}
