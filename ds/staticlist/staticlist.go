package staticlist

// 静态链表, 空闲节点通过下标串成链表, 分配和释放都是O(1)
// 下标一旦分配就保持稳定, 可以作为外部句柄的一部分
type Node[T any] struct {
	Data T
	Next int
	Gen  uint32 // 下标被释放的次数, 用来识别过期的外部句柄
}

type StaticList[T any] struct {
	datas []Node[T]
	free  int
	used  int
	zero  T // 零值
}

const Null = -1

func NewStaticList[T any](size int) *StaticList[T] {
	list := &StaticList[T]{free: Null}
	list.Grow(size)
	return list
}

// Malloc 返回空闲下标, 满了返回Null
func (list *StaticList[T]) Malloc() int {
	p := list.free
	if p != Null {
		slot := &list.datas[p]
		list.free = slot.Next
		slot.Next = Null
		list.used++
	}
	return p
}

func (list *StaticList[T]) Free(p int) {
	node := &list.datas[p]
	node.Data = list.zero
	node.Gen++
	node.Next = list.free
	list.free = p
	list.used--
}

// Grow 追加n个空闲节点, 已分配的下标不变
func (list *StaticList[T]) Grow(n int) {
	if n <= 0 {
		return
	}
	old := len(list.datas)
	datas := make([]Node[T], old+n)
	copy(datas, list.datas)
	// 新节点按下标顺序挂到空闲链表头部
	for i := old; i < old+n-1; i++ {
		datas[i].Next = i + 1
	}
	datas[old+n-1].Next = list.free
	list.datas = datas
	list.free = old
}

func (list *StaticList[T]) GetNode(p int) *Node[T] {
	return &list.datas[p]
}

func (list *StaticList[T]) GetDataValue(p int) T {
	return list.datas[p].Data
}

func (list *StaticList[T]) SetDataValue(p int, val T) {
	list.datas[p].Data = val
}

// InRange 下标是否在表内, 不代表已分配
func (list *StaticList[T]) InRange(p int) bool {
	return p >= 0 && p < len(list.datas)
}

func (list *StaticList[T]) Len() int {
	return list.used
}

func (list *StaticList[T]) Cap() int {
	return len(list.datas)
}
