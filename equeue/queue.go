// Package equeue 固定内存的事件队列/软件定时器
//
// 事件从队列自己的arena中分配(也可以使用调用方内存的用户事件), 按到期时间排序,
// 由调用 Dispatch 的协程同步执行. 除了 Dispatch 的等待以外所有操作都不阻塞,
// 可以在回调里重入调用. 回调、析构函数和后台钩子执行时不持有队列锁.
package equeue

import (
	"runtime/debug"
	"sync"

	"github.com/fixkme/equeue/clock"
	"github.com/fixkme/equeue/ds/staticlist"
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/lock"
	"github.com/fixkme/equeue/mlog"
)

// Call系列接口每个事件占用的数据区大小
const callbackSize = 16

type Options struct {
	Name         string
	Clock        clock.Clock // 默认 clock.System()
	Sema         clock.Sema  // 默认 clock.NewSema()
	Locker       sync.Locker // 默认 lock.NewSpinLock()
	PanicHandler func(r any) // 回调panic处理, 默认打印错误日志后继续
}

type Queue struct {
	name  string
	clock clock.Clock
	sema  clock.Sema
	mu    sync.Locker
	panic func(r any)

	pool    pool
	handles *staticlist.StaticList[*Event]
	queue   *Event // 调度链表头
	pending int

	breakRequested bool
	closed         bool

	background    func(ms int)
	retired       []func(ms int) // 被替换, 还没收到-1的钩子
	notifying     bool
	notifyPending bool
	chain         *Queue
	chainID       int // 投递到chain目标队列里的事件

	stats Stats
}

type Stats struct {
	Name       string
	Pending    int
	PoolSize   int
	PoolUsed   int
	Handles    int
	Posted     uint64
	Fired      uint64
	Cancelled  uint64
	AllocFails uint64
	Passes     uint64
}

// New 创建队列, arena 由队列自己分配, 大小为size字节
func New(size int, opt *Options) (*Queue, error) {
	if size <= 0 {
		return nil, errs.InvalidSize.Printf("size=%d", size)
	}
	return newQueue(make([]byte, size), true, opt), nil
}

// NewIn 使用调用方提供的arena, 队列销毁后不会再引用buf
func NewIn(buf []byte, opt *Options) (*Queue, error) {
	if len(buf) == 0 {
		return nil, errs.InvalidSize.Print("empty buffer")
	}
	return newQueue(buf, false, opt), nil
}

func newQueue(buf []byte, owned bool, opt *Options) *Queue {
	if opt == nil {
		opt = &Options{}
	}
	q := &Queue{
		name:  opt.Name,
		clock: opt.Clock,
		sema:  opt.Sema,
		mu:    opt.Locker,
		panic: opt.PanicHandler,
		pool:  newPool(buf, owned),
	}
	if q.clock == nil {
		q.clock = clock.System()
	}
	if q.sema == nil {
		q.sema = clock.NewSema()
	}
	if q.mu == nil {
		q.mu = lock.NewSpinLock()
	}
	if q.panic == nil {
		q.panic = func(r any) {
			mlog.Errorf("equeue %s callback panic: %v\n%s", q.name, r, debug.Stack())
		}
	}
	q.handles = staticlist.NewStaticList[*Event](min(max(len(buf)/EventOverhead, 8), 1024))
	return q
}

func (q *Queue) Name() string {
	return q.name
}

// Closed 是否已经Destroy
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Tick 队列使用的单调毫秒计数
func (q *Queue) Tick() uint32 {
	return q.clock.Tick()
}

// Alloc 从arena分配size字节的池事件, 内存不足返回nil
func (q *Queue) Alloc(size int) *Event {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	e := q.pool.alloc(size)
	if e == nil {
		q.stats.AllocFails++
		used := q.pool.used
		q.mu.Unlock()
		mlog.Debugf("equeue %s alloc %d bytes failed, used=%d/%d", q.name, size, used, q.pool.capacity())
		return nil
	}
	e.q = q
	q.mu.Unlock()
	return e
}

// Dealloc 释放未投递的池事件, 析构函数会被调用
func (q *Queue) Dealloc(e *Event) {
	if e == nil {
		return
	}
	if e.UserAllocated() || e.q != q {
		panic(errs.Unknown.Print("dealloc of foreign event"))
	}
	e.mustIdle()
	if e.dtor != nil {
		q.exec(e.dtor, e.data)
	}
	q.reclaim(e)
}

// Post 投递池事件, 之后事件归队列所有; e为nil(分配失败)时返回0
func (q *Queue) Post(e *Event, cb Callback) int {
	if e == nil {
		return 0
	}
	if e.UserAllocated() || e.q != q {
		panic(errs.Unknown.Print("post of foreign event"))
	}
	return q.post(e, cb)
}

// PostUserAllocated 投递用户事件, 不受内存池容量限制
func (q *Queue) PostUserAllocated(e *Event, cb Callback) int {
	if e == nil {
		return 0
	}
	if !e.UserAllocated() {
		panic(errs.Unknown.Print("pool event posted as user allocated"))
	}
	return q.post(e, cb)
}

func (q *Queue) post(e *Event, cb Callback) int {
	q.mu.Lock()
	if e.state != stateIdle {
		q.mu.Unlock()
		panic(errs.EventPosted.Printf("id=%d", e.id))
	}
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	before := q.earliest()
	now := q.clock.Tick()
	e.q = q
	e.cb = cb
	e.target = now + uint32(e.delay)
	id := q.issue(e)
	q.enqueue(e, now)
	q.stats.Posted++
	changed := q.earliest() != before
	q.unlockNotify(before)
	if changed {
		// 唤醒等待中的Dispatch重新计算等待时间
		q.sema.Signal()
	}
	return id
}

func (q *Queue) Call(fn func()) int {
	return q.CallIn(0, fn)
}

func (q *Queue) CallIn(ms int, fn func()) int {
	e := q.Alloc(callbackSize)
	if e == nil {
		return 0
	}
	e.SetDelay(ms)
	return q.Post(e, func([]byte) { fn() })
}

func (q *Queue) CallEvery(ms int, fn func()) int {
	e := q.Alloc(callbackSize)
	if e == nil {
		return 0
	}
	e.SetDelay(ms)
	e.SetPeriod(max(ms, 0))
	return q.Post(e, func([]byte) { fn() })
}

// Cancel 取消事件, 未知或者过期的句柄直接忽略
// 从调度链表中摘除时同步调用析构函数并返回true;
// 正在执行中的事件不能撤回, 但是不会再执行也不会再周期重入, 返回false
func (q *Queue) Cancel(id int) bool {
	q.mu.Lock()
	e := q.lookup(id)
	if e == nil {
		q.mu.Unlock()
		return false
	}
	if e.state == stateInflight {
		if e.period >= 0 || e.cb != nil {
			e.cb = nil
			e.period = -1
			q.stats.Cancelled++
		}
		q.mu.Unlock()
		return false
	}

	before := q.earliest()
	q.unqueue(e)
	q.release(e)
	q.stats.Cancelled++
	dtor := e.dtor
	q.unlockNotify(before)

	if dtor != nil {
		q.exec(dtor, e.data)
	}
	q.reclaim(e)
	return true
}

// CancelUserAllocated 与Cancel相同, 用户事件取消后复位, 内存仍归调用方
func (q *Queue) CancelUserAllocated(id int) bool {
	return q.Cancel(id)
}

// TimeLeft 距离到期的毫秒数, 句柄无效时ok为false
func (q *Queue) TimeLeft(id int) (ms int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.lookup(id)
	if e == nil {
		return 0, false
	}
	return clock.Clamp(e.target, q.clock.Tick()), true
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.stats
	s.Name = q.name
	s.Pending = q.pending
	s.PoolSize = q.pool.capacity()
	s.PoolUsed = q.pool.used
	s.Handles = q.handles.Len()
	return s
}

// Destroy 取出所有未执行的事件, 只调用析构函数不调用回调, 然后释放arena
// 之后的投递全部返回0
func (q *Queue) Destroy() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	es := q.drain()
	for e := es; e != nil; e = e.next {
		q.release(e)
	}
	target, chainID := q.chain, q.chainID
	q.chain, q.chainID = nil, 0
	q.breakRequested = true
	q.mu.Unlock()

	n := 0
	for es != nil {
		e := es
		es = e.next
		e.next = nil
		if e.dtor != nil {
			q.exec(e.dtor, e.data)
		}
		q.reclaim(e)
		n++
	}

	if target != nil && chainID != 0 {
		target.Cancel(chainID)
	}
	q.notify()
	q.sema.Signal()

	q.mu.Lock()
	q.pool.release()
	q.mu.Unlock()
	mlog.Debugf("equeue %s destroyed, dropped %d pending events", q.name, n)
}

// reclaim 池事件归还arena, 用户事件复位
func (q *Queue) reclaim(e *Event) {
	if e.user {
		q.mu.Lock()
		e.reset()
		q.mu.Unlock()
		return
	}
	q.mu.Lock()
	e.reset()
	q.pool.dealloc(e)
	q.mu.Unlock()
}

func (q *Queue) exec(fn Callback, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			q.panic(r)
		}
	}()
	fn(data)
}
