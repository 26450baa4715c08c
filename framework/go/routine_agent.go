package g

import (
	"context"
	"sync"

	"github.com/fixkme/equeue/equeue"
)

// RoutineAgent 独占一个队列, Run所在的协程就是队列的Dispatch协程
type RoutineAgent struct {
	*Go
	done        chan struct{}
	isClosed    bool
	mutex       sync.RWMutex
	beforeClose func()
}

// TimerCb tid为定时器句柄, now为触发时队列的tick
type TimerCb func(tid int, now uint32, data any)

func NewRoutineAgent(q *equeue.Queue) *RoutineAgent {
	a := &RoutineAgent{
		Go:   NewGo(q),
		done: make(chan struct{}),
	}
	return a
}

func (a *RoutineAgent) Init(beforeClose func()) {
	a.beforeClose = beforeClose
}

// Run 外部的Break只会让Dispatch重新开始, 只有Close才会退出
func (a *RoutineAgent) Run() {
	defer a.onClose()

	for {
		a.q.Dispatch(-1)
		a.mutex.RLock()
		closed := a.isClosed
		a.mutex.RUnlock()
		if closed {
			return
		}
	}
}

// onClose 执行已经到期的事件, 然后销毁队列, 未到期的事件只调用析构函数
func (a *RoutineAgent) onClose() {
	defer close(a.done)
	if a.beforeClose != nil {
		a.Go.Exec(a.beforeClose)
	}
	a.q.Dispatch(0)
	a.q.Destroy()
}

func (a *RoutineAgent) Close() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.isClosed {
		return
	}

	a.isClosed = true
	a.q.Break()
}

// Done Run退出并且队列已销毁后关闭
func (a *RoutineAgent) Done() <-chan struct{} {
	return a.done
}

func (a *RoutineAgent) SyncRunFunc(f func()) (err error) {
	a.mutex.RLock()
	if a.isClosed {
		err = ErrRoutineClosed
		a.mutex.RUnlock()
		return
	}

	errCh, _ := a.Go.SubmitWithResult(f)
	a.mutex.RUnlock()
	err = <-errCh
	return
}

// CtxRunFunc ctx结束时还没执行的f会被取消
func (a *RoutineAgent) CtxRunFunc(ctx context.Context, f func()) (err error) {
	a.mutex.RLock()
	if a.isClosed {
		err = ErrRoutineClosed
		a.mutex.RUnlock()
		return
	}

	errCh, id := a.Go.SubmitWithResult(f)
	a.mutex.RUnlock()
	select {
	case <-ctx.Done():
		a.q.Cancel(id)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (a *RoutineAgent) TryRunFunc(f func()) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if a.isClosed {
		return ErrRoutineClosed
	}

	if !a.Go.TrySubmit(f) {
		return ErrQueueFull
	}
	return nil
}

func (a *RoutineAgent) MustRunFunc(f func()) error {
	a.mutex.RLock()
	if a.isClosed {
		a.mutex.RUnlock()
		return ErrRoutineClosed
	}
	a.mutex.RUnlock()

	return a.Go.MustSubmit(f)
}

// AddTimer delayMs后触发, periodMs<0为单次
func (a *RoutineAgent) AddTimer(delayMs, periodMs int, cb TimerCb, data any) (tid int, err error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if a.isClosed {
		return 0, ErrRoutineClosed
	}

	e := a.q.Alloc(0)
	if e == nil {
		return 0, a.submitErr()
	}
	e.SetDelay(delayMs)
	e.SetPeriod(periodMs)
	tid = a.q.Post(e, func([]byte) {
		id := e.ID()
		a.Go.Exec(func() { cb(id, a.q.Tick(), data) })
	})
	if tid == 0 {
		return 0, ErrRoutineClosed
	}
	return tid, nil
}

func (a *RoutineAgent) CancelTimer(tid int) bool {
	return a.q.Cancel(tid)
}
