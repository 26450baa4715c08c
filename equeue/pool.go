package equeue

const (
	// EventOverhead 每个池事件的簿记开销, 计入arena容量
	EventOverhead = 64
	alignment     = 8
)

func chunkSize(size int) int {
	return (size + EventOverhead + alignment - 1) &^ (alignment - 1)
}

// pool 从固定大小的arena里切块, 不会扩容
// 空闲块按大小排序, 相同大小的块挂在同一个节点的chunkSibling上
// 并发安全由队列锁保证
type pool struct {
	buf    []byte
	owned  bool
	slab   int // 未切分区域的起点
	used   int
	chunks *Event
}

func newPool(buf []byte, owned bool) pool {
	return pool{buf: buf, owned: owned}
}

func (p *pool) alloc(size int) *Event {
	if size < 0 {
		return nil
	}
	need := chunkSize(size)

	// 优先复用足够大的空闲块
	for c := &p.chunks; *c != nil; c = &(*c).chunkNext {
		if (*c).size >= need {
			e := *c
			if e.chunkSibling != nil {
				*c = e.chunkSibling
				(*c).chunkNext = e.chunkNext
			} else {
				*c = e.chunkNext
			}
			e.chunkNext, e.chunkSibling = nil, nil
			p.used += e.size
			p.carve(e, size)
			return e
		}
	}

	if len(p.buf)-p.slab >= need {
		e := &Event{off: p.slab, size: need}
		p.slab += need
		p.used += need
		p.carve(e, size)
		return e
	}
	return nil
}

// carve 数据区在簿记开销之后, 容量截止到块尾
func (p *pool) carve(e *Event, size int) {
	start := e.off + EventOverhead
	e.data = p.buf[start : start+size : e.off+e.size]
	clear(e.data)
	e.period = -1
	e.delay = 0
}

func (p *pool) dealloc(e *Event) {
	e.cb, e.dtor, e.data = nil, nil, nil
	p.used -= e.size

	c := &p.chunks
	for *c != nil && (*c).size < e.size {
		c = &(*c).chunkNext
	}
	if *c != nil && (*c).size == e.size {
		e.chunkSibling = *c
		e.chunkNext = (*c).chunkNext
		(*c).chunkNext = nil
	} else {
		e.chunkSibling = nil
		e.chunkNext = *c
	}
	*c = e
}

func (p *pool) capacity() int {
	return len(p.buf)
}

func (p *pool) release() {
	if p.owned {
		p.buf = nil
	}
	p.chunks = nil
}
