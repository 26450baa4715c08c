package equeue

import "github.com/fixkme/equeue/clock"

// enqueue 按到期时间插入, 相同到期时间挂到头节点的兄弟链表尾部(FIFO)
// 调用方持有队列锁
func (q *Queue) enqueue(e *Event, now uint32) {
	if clock.Diff(e.target, now) < 0 {
		e.target = now
	}

	p := &q.queue
	for *p != nil && clock.Diff((*p).target, e.target) < 0 {
		p = &(*p).next
	}

	e.sibling = nil
	if *p != nil && (*p).target == e.target {
		s := &(*p).sibling
		for *s != nil {
			s = &(*s).sibling
		}
		*s = e
		e.ref = s
		e.next = nil
	} else {
		e.next = *p
		if e.next != nil {
			e.next.ref = &e.next
		}
		*p = e
		e.ref = p
	}
	e.state = statePending
	q.pending++
}

// unqueue 摘除头节点或兄弟节点, 头节点被摘除时第一个兄弟顶上
func (q *Queue) unqueue(e *Event) {
	if e.sibling != nil {
		e.sibling.next = e.next
		if e.sibling.next != nil {
			e.sibling.next.ref = &e.sibling.next
		}
		*e.ref = e.sibling
		e.sibling.ref = e.ref
	} else {
		*e.ref = e.next
		if e.next != nil {
			e.next.ref = e.ref
		}
	}
	e.next, e.sibling, e.ref = nil, nil, nil
	e.state = stateIdle
	q.pending--
}

// dequeue 取出所有到期的事件, 通过next串成链表: 先按到期时间, 同一时间按投递顺序
func (q *Queue) dequeue(now uint32) *Event {
	var head *Event
	tail := &head
	for q.queue != nil && clock.Diff(q.queue.target, now) <= 0 {
		h := q.queue
		q.queue = h.next
		if q.queue != nil {
			q.queue.ref = &q.queue
		}
		for e := h; e != nil; {
			sib := e.sibling
			e.next, e.sibling, e.ref = nil, nil, nil
			e.state = stateInflight
			q.pending--
			*tail = e
			tail = &e.next
			e = sib
		}
	}
	return head
}

// drain 取出全部事件, 队列销毁时使用
func (q *Queue) drain() *Event {
	if q.queue == nil {
		return nil
	}
	last := q.queue
	for last.next != nil {
		last = last.next
	}
	return q.dequeue(last.target)
}

type deadline struct {
	target uint32
	ok     bool
}

func (q *Queue) earliest() deadline {
	if q.queue == nil {
		return deadline{}
	}
	return deadline{target: q.queue.target, ok: true}
}

// untilNext 距离最早到期的毫秒数, 没有事件时为-1
func (q *Queue) untilNext(now uint32) int {
	d := q.earliest()
	if !d.ok {
		return -1
	}
	return clock.Clamp(d.target, now)
}
