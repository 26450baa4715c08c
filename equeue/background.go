package equeue

// Background 注册后台钩子, 最早到期时间变化时调用 fn(距离下一个事件的毫秒数, 没有事件为-1)
// 注册时调用一次; 被替换的旧钩子最后收到-1; fn为nil表示注销
// 钩子在不持有队列锁的情况下调用, 可以在里面投递或者取消事件
func (q *Queue) Background(fn func(ms int)) {
	q.mu.Lock()
	if q.background != nil {
		q.retired = append(q.retired, q.background)
	}
	q.background = fn
	q.mu.Unlock()
	q.notify()
}

// unlockNotify 释放锁, 最早到期时间和before不同时通知钩子
func (q *Queue) unlockNotify(before deadline) {
	changed := q.earliest() != before
	q.mu.Unlock()
	if changed {
		q.notify()
	}
}

// notify 同一时刻只有一个协程在投递通知, 其他协程(包括钩子里的重入)只留下标记
// 投递者每一轮都重新读取最早到期时间, 所以钩子最后收到的值总是当前的值
func (q *Queue) notify() {
	q.mu.Lock()
	q.notifyPending = true
	if q.notifying {
		q.mu.Unlock()
		return
	}
	q.notifying = true
	for q.notifyPending {
		q.notifyPending = false
		retired := q.retired
		q.retired = nil
		hook := q.background
		chained := q.chain != nil
		ms := q.untilNext(q.clock.Tick())
		if q.closed {
			ms = -1
		}
		q.mu.Unlock()

		for _, old := range retired {
			q.callHook(old, -1)
		}
		if hook != nil {
			q.callHook(hook, ms)
		}
		if chained {
			q.chainUpdate(ms)
		}
		q.mu.Lock()
	}
	q.notifying = false
	q.mu.Unlock()
}

func (q *Queue) callHook(fn func(ms int), ms int) {
	defer func() {
		if r := recover(); r != nil {
			q.panic(r)
		}
	}()
	fn(ms)
}
