package lock

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// 队列临界区锁的类型
const (
	KindSpin  = "spin"  // 默认, 临界区只有指针操作
	KindMutex = "mutex" // 跨线程投递很多, 自旋浪费CPU时使用
)

// New 按类型创建锁, 空串为KindSpin
func New(kind string) (sync.Locker, error) {
	switch kind {
	case "", KindSpin:
		return NewSpinLock(), nil
	case KindMutex:
		return new(sync.Mutex), nil
	}
	return nil, fmt.Errorf("lock: unknown kind %q", kind)
}

// SpinLock 只适合保护很短的临界区, 持锁期间不能阻塞或者回调用户代码
type SpinLock interface {
	sync.Locker
	TryLock() bool
}

type spinLock struct {
	state atomic.Uint32
}

const (
	activeSpins = 4  // 先空转几次, 持锁者大概率马上释放
	maxBackoff  = 16 // Gosched 次数上限
)

func (sl *spinLock) Lock() {
	for i := 0; i < activeSpins; i++ {
		if sl.TryLock() {
			return
		}
	}
	backoff := 1
	for !sl.TryLock() {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

func (sl *spinLock) TryLock() bool {
	return sl.state.Load() == 0 && sl.state.CompareAndSwap(0, 1)
}

func (sl *spinLock) Unlock() {
	if !sl.state.CompareAndSwap(1, 0) {
		panic("lock: unlock of unlocked spinlock")
	}
}

func NewSpinLock() SpinLock {
	return new(spinLock)
}
