package g

import (
	"time"

	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/mlog"
)

var (
	ErrQueueFull     = errs.NoMemory.Print("routine queue is full")
	ErrRoutineClosed = errs.QueueClosed.Print("routine agent is closed")
)

// Go 把函数投递到队列里, 由执行Dispatch的协程调用
type Go struct {
	q            *equeue.Queue
	panicHandler func(r any)
}

func NewGo(q *equeue.Queue) *Go {
	g := &Go{q: q}
	g.panicHandler = func(r any) {
		mlog.Errorf("go run panic: %v", r)
	}
	return g
}

func (g *Go) SetPanicHandler(f func(r any)) {
	if f != nil {
		g.panicHandler = f
	}
}

func (g *Go) Queue() *equeue.Queue {
	return g.q
}

// SubmitWithResult f执行完成后errCh关闭; 没有执行时先收到一个错误再关闭
// 返回的id可以用来取消还没执行的f
func (g *Go) SubmitWithResult(f func()) (errCh chan error, id int) {
	errCh = make(chan error, 1)
	e := g.q.Alloc(0)
	if e == nil {
		errCh <- g.submitErr()
		close(errCh)
		return
	}
	ran := false
	e.SetDestructor(func([]byte) {
		if !ran {
			errCh <- ErrRoutineClosed
		}
		close(errCh)
	})
	id = g.q.Post(e, func([]byte) {
		ran = true
		g.Exec(f)
	})
	if id == 0 {
		errCh <- ErrRoutineClosed
		close(errCh)
	}
	return
}

func (g *Go) submitErr() error {
	if g.q.Closed() {
		return ErrRoutineClosed
	}
	return ErrQueueFull
}

func (g *Go) TrySubmit(f func()) (ok bool) {
	return g.q.Call(func() { g.Exec(f) }) != 0
}

// MustSubmit 内存池满时等待其他事件释放, 队列关闭时返回错误
func (g *Go) MustSubmit(f func()) error {
	for {
		if g.TrySubmit(f) {
			return nil
		}
		if g.q.Closed() {
			return ErrRoutineClosed
		}
		time.Sleep(time.Millisecond)
	}
}

func (g *Go) Exec(cb func()) {
	defer func() {
		if r := recover(); r != nil {
			g.panicHandler(r)
		}
	}()

	cb()
}
