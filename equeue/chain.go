package equeue

import (
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/mlog"
)

// Chain 把q挂到target上: target的Dispatch会同时执行q里到期的事件
// 实现方式是在target里投递一个 Dispatch(0) 事件, q的最早到期时间变化时重新投递
// target为nil时解除, 之后两个队列各自执行自己的事件
// 事件仍然只能用投递时所在队列的句柄取消
func (q *Queue) Chain(target *Queue) bool {
	if target == q {
		panic(errs.ChainSelf.Print(q.name))
	}
	q.mu.Lock()
	old, oldID := q.chain, q.chainID
	q.chain, q.chainID = target, 0
	ms := q.untilNext(q.clock.Tick())
	q.mu.Unlock()

	if old != nil && oldID != 0 {
		old.Cancel(oldID)
	}
	if target == nil {
		return true
	}
	return q.chainUpdate(ms)
}

func (q *Queue) chainUpdate(ms int) bool {
	q.mu.Lock()
	target, old := q.chain, q.chainID
	q.chainID = 0
	q.mu.Unlock()
	if target == nil {
		return true
	}
	if old != 0 {
		target.Cancel(old)
	}
	if ms < 0 {
		return true
	}

	id := target.CallIn(ms, func() { q.Dispatch(0) })
	if id == 0 {
		mlog.Warnf("equeue %s chain to %s failed, target out of memory", q.name, target.name)
		return false
	}
	q.mu.Lock()
	if q.chain == target && q.chainID == 0 {
		q.chainID, id = id, 0
	}
	q.mu.Unlock()
	// 并发更新时只保留一个
	if id != 0 {
		target.Cancel(id)
	}
	return true
}
