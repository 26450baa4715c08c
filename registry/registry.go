// Package registry 按名字管理队列, 名字存放在基数树里, 可以按前缀批量操作
// 例如 "game.scene." 前缀下的所有场景队列一起 Break 或者销毁
package registry

import (
	"sync"

	"github.com/armon/go-radix"
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/mlog"
)

type Registry struct {
	mu   sync.RWMutex
	tree *radix.Tree
}

func New() *Registry {
	return &Registry{tree: radix.New()}
}

// Register 名字取自 q.Name(), 不能为空也不能重复
func (r *Registry) Register(q *equeue.Queue) error {
	name := q.Name()
	if name == "" {
		return errs.InvalidConfig.Print("queue without name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tree.Get(name); ok {
		return errs.QueueExists.Print(name)
	}
	r.tree.Insert(name, q)
	mlog.Debugf("registry add queue %s", name)
	return nil
}

func (r *Registry) Get(name string) (*equeue.Queue, error) {
	r.mu.RLock()
	v, ok := r.tree.Get(name)
	r.mu.RUnlock()
	if !ok {
		return nil, errs.QueueNotFound.Print(name)
	}
	return v.(*equeue.Queue), nil
}

// Remove 只从表里移除, 不销毁队列
func (r *Registry) Remove(name string) (*equeue.Queue, error) {
	r.mu.Lock()
	v, ok := r.tree.Delete(name)
	r.mu.Unlock()
	if !ok {
		return nil, errs.QueueNotFound.Print(name)
	}
	return v.(*equeue.Queue), nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Walk 按名字顺序遍历前缀下的队列, fn返回false停止
// 遍历的是快照, fn里可以再操作registry
func (r *Registry) Walk(prefix string, fn func(q *equeue.Queue) bool) {
	for _, q := range r.collect(prefix) {
		if !fn(q) {
			return
		}
	}
}

func (r *Registry) collect(prefix string) []*equeue.Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var qs []*equeue.Queue
	r.tree.WalkPrefix(prefix, func(_ string, v any) bool {
		qs = append(qs, v.(*equeue.Queue))
		return false
	})
	return qs
}

// BreakPrefix 让前缀下所有队列的Dispatch返回, 返回队列个数
func (r *Registry) BreakPrefix(prefix string) int {
	qs := r.collect(prefix)
	for _, q := range qs {
		q.Break()
	}
	return len(qs)
}

// DestroyPrefix 移除并销毁前缀下的队列
// 按名字逆序销毁, 同前缀下被挂载的目标队列通常排在后面
func (r *Registry) DestroyPrefix(prefix string) int {
	r.mu.Lock()
	var qs []*equeue.Queue
	r.tree.WalkPrefix(prefix, func(_ string, v any) bool {
		qs = append(qs, v.(*equeue.Queue))
		return false
	})
	r.tree.DeletePrefix(prefix)
	r.mu.Unlock()

	for i := len(qs) - 1; i >= 0; i-- {
		qs[i].Destroy()
	}
	if len(qs) > 0 {
		mlog.Infof("registry destroyed %d queues with prefix %q", len(qs), prefix)
	}
	return len(qs)
}

// Chain 按名字挂载, target为空表示解除
func (r *Registry) Chain(source, target string) error {
	src, err := r.Get(source)
	if err != nil {
		return err
	}
	var dst *equeue.Queue
	if target != "" {
		if source == target {
			return errs.ChainSelf.Print(source)
		}
		if dst, err = r.Get(target); err != nil {
			return err
		}
	}
	if !src.Chain(dst) {
		return errs.NoMemory.Printf("chain %s to %s", source, target)
	}
	return nil
}

// Stats 前缀下所有队列的统计, 按名字排序
func (r *Registry) Stats(prefix string) []equeue.Stats {
	qs := r.collect(prefix)
	out := make([]equeue.Stats, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Stats())
	}
	return out
}
