package equeue

import "github.com/fixkme/equeue/errs"

// Callback 事件回调, data 为池事件在arena中的数据区或者用户事件的缓冲区
type Callback func(data []byte)

type eventState uint8

const (
	stateIdle     eventState = iota // 已分配或已复位, 未投递
	statePending                    // 在调度链表中
	stateInflight                   // 已从调度链表取出, 等待执行或正在执行
)

// Event 一次调度的单元
// 池事件由 Queue.Alloc 分配, 投递后归队列所有, 最后一次执行或者取消后回收;
// 用户事件由 NewUserEvent 创建, 内存归调用方, 执行完后复位为未投递状态, 可以再次投递
type Event struct {
	q      *Queue
	id     int
	target uint32 // 到期tick
	delay  int    // 投递时的相对延迟 ms
	period int    // <0 表示单次
	cb     Callback
	dtor   Callback
	data   []byte
	user   bool
	state  eventState

	// 调度链表: 只有头节点的next有效, 兄弟节点的next永远为nil
	// ref 指向引用自己的那个指针(前一个头节点的next, 或者前一个兄弟的sibling)
	next    *Event
	sibling *Event
	ref     **Event

	// 池内存: arena 中的偏移和块大小(含簿记开销)
	off, size int
	// 空闲块链表: 按size有序, 相同size挂在sibling上
	chunkNext, chunkSibling *Event
}

// NewUserEvent 使用调用方的内存, 不占用队列的内存池, 不会失败
func NewUserEvent(buf []byte) *Event {
	return &Event{data: buf, period: -1, user: true}
}

// mustIdle 投递以后state由队列在锁内修改, 这里也要持锁读取
func (e *Event) mustIdle() {
	state, id := e.state, 0
	if q := e.q; q != nil {
		q.mu.Lock()
		state, id = e.state, e.id
		q.mu.Unlock()
	}
	if state != stateIdle {
		panic(errs.EventPosted.Printf("id=%d", id))
	}
}

// SetDelay 投递后多少毫秒到期, 只能在投递前设置
func (e *Event) SetDelay(ms int) {
	e.mustIdle()
	e.delay = ms
}

// SetPeriod 周期毫秒数, <0 表示单次事件, 只能在投递前设置
func (e *Event) SetPeriod(ms int) {
	e.mustIdle()
	if ms < 0 {
		ms = -1
	}
	e.period = ms
}

// SetDestructor 事件最终释放时调用一次: 单次执行完成、取消或者队列销毁
func (e *Event) SetDestructor(fn Callback) {
	e.mustIdle()
	e.dtor = fn
}

func (e *Event) Data() []byte {
	return e.data
}

// UserAllocated 是否为调用方内存的用户事件
func (e *Event) UserAllocated() bool {
	return e.user
}

// ID 当前句柄, 未投递时为0
func (e *Event) ID() int {
	if e.q == nil {
		return e.id
	}
	e.q.mu.Lock()
	defer e.q.mu.Unlock()
	return e.id
}

// reset 回到未投递状态, 保留用户事件的配置以便再次投递
func (e *Event) reset() {
	e.id = 0
	e.state = stateIdle
	e.next, e.sibling, e.ref = nil, nil, nil
	e.cb = nil
}
