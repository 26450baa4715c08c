package equeue

import "github.com/fixkme/equeue/ds/staticlist"

const (
	// 64位平台代数占32位, 32位平台占16位
	genBits = 16 << (^uint(0) >> 63)
	genMask = 1<<genBits - 1
)

// issue 句柄 = 槽位<<genBits | 代数
// 代数取自槽位的释放次数, 同一个槽位复用 genMask 次以内旧句柄都不会匹配; 代数跳过0, 所以句柄永远不为0
// 调用方持有队列锁
func (q *Queue) issue(e *Event) int {
	slot := q.handles.Malloc()
	if slot == staticlist.Null {
		q.handles.Grow(q.growBy(e))
		slot = q.handles.Malloc()
	}
	node := q.handles.GetNode(slot)
	node.Data = e
	e.id = slot<<genBits | (int(node.Gen%genMask) + 1)
	return e.id
}

// growBy 池事件同时存在的数量不超过 arena/EventOverhead, 句柄表只为它们增长到这个上限
// 用户事件不占arena, 超过上限以后按倍数增长
func (q *Queue) growBy(e *Event) int {
	size := q.handles.Cap()
	n := max(size, 16)
	if limit := q.pool.capacity() / EventOverhead; !e.UserAllocated() && size < limit {
		n = min(n, limit-size)
	}
	return n
}

// lookup 槽位和代数都要匹配, 否则视为不存在
func (q *Queue) lookup(id int) *Event {
	if id <= 0 {
		return nil
	}
	slot := id >> genBits
	if !q.handles.InRange(slot) {
		return nil
	}
	e := q.handles.GetDataValue(slot)
	if e == nil || e.id != id {
		return nil
	}
	return e
}

func (q *Queue) release(e *Event) {
	if e.id == 0 {
		return
	}
	q.handles.Free(e.id >> genBits)
	e.id = 0
}
