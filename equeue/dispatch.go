package equeue

import "github.com/fixkme/equeue/clock"

// Dispatch 执行到期事件, ms<0 一直执行直到 Break
// ms>=0 时预算用完返回, 这种情况下Break请求不会被消耗, 留给下一次Dispatch
// 没有到期事件时在信号量上等待, 这是引擎里唯一会阻塞的地方
func (q *Queue) Dispatch(ms int) {
	tick := q.clock.Tick()
	timeout := tick + uint32(ms)

	for {
		q.mu.Lock()
		before := q.earliest()
		es := q.dequeue(tick)
		q.stats.Passes++
		q.unlockNotify(before)

		for es != nil {
			e := es
			es = e.next
			e.next = nil
			q.fire(e)
		}

		tick = q.clock.Tick()
		wait := -1
		if ms >= 0 {
			wait = clock.Diff(timeout, tick)
			if wait <= 0 {
				return
			}
		}

		q.mu.Lock()
		if q.breakRequested || q.closed {
			q.breakRequested = false
			q.mu.Unlock()
			return
		}
		if next := q.untilNext(tick); next >= 0 && (wait < 0 || next < wait) {
			wait = next
		}
		q.mu.Unlock()

		q.sema.Wait(wait)

		q.mu.Lock()
		if q.breakRequested || q.closed {
			q.breakRequested = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
		tick = q.clock.Tick()
	}
}

// Break 让当前或者下一次Dispatch在执行完本轮到期事件后返回, 多次调用等同一次
func (q *Queue) Break() {
	q.mu.Lock()
	q.breakRequested = true
	q.mu.Unlock()
	q.sema.Signal()
}

// fire 执行一个已取出的事件, 然后周期重入或者释放
// 周期事件的下一次到期时间至少是 now+1, 周期为0时一次Dispatch(0)只会执行一次
func (q *Queue) fire(e *Event) {
	q.mu.Lock()
	cb := e.cb
	q.mu.Unlock()
	if cb != nil {
		q.exec(cb, e.data)
	}

	q.mu.Lock()
	if cb != nil {
		q.stats.Fired++
	}
	if e.period >= 0 && !q.closed {
		before := q.earliest()
		now := q.clock.Tick()
		target := e.target + uint32(e.period)
		if clock.Diff(target, now) <= 0 {
			target = now + 1
		}
		e.target = target
		q.enqueue(e, now)
		q.unlockNotify(before)
		return
	}
	q.release(e)
	dtor := e.dtor
	q.mu.Unlock()

	if dtor != nil {
		q.exec(dtor, e.data)
	}
	q.reclaim(e)
}
