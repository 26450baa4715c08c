// Package stats 定时采集队列统计, 交给sink输出
// 采集是投递在某个队列上的周期事件, 输出在单独的协程里, 不阻塞Dispatch
package stats

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/mlog"
	"github.com/google/uuid"
)

type Snapshot struct {
	Instance string
	At       time.Time
	Queues   []equeue.Stats
}

type Sink interface {
	Report(ctx context.Context, s *Snapshot) error
}

// Source 返回需要上报的队列统计, 比如 registry.Stats("")
type Source func() []equeue.Stats

type Reporter struct {
	q        *equeue.Queue
	instance string
	source   Source
	sinks    []Sink
	timeout  time.Duration

	mu      sync.Mutex
	id      int
	ch      chan *Snapshot
	quit    chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
}

// NewReporter instance为空时生成uuid
func NewReporter(q *equeue.Queue, instance string, source Source, sinks ...Sink) *Reporter {
	if instance == "" {
		instance = uuid.NewString()
	}
	return &Reporter{
		q:        q,
		instance: instance,
		source:   source,
		sinks:    sinks,
		timeout:  3 * time.Second,
	}
}

func (r *Reporter) Instance() string {
	return r.instance
}

// Dropped 输出跟不上采集时丢弃的快照数
func (r *Reporter) Dropped() uint64 {
	return r.dropped.Load()
}

// Start 每intervalMs毫秒采集一次, 重复调用无效
func (r *Reporter) Start(intervalMs int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id != 0 {
		return nil
	}
	ch := make(chan *Snapshot, 4)
	id := r.q.CallEvery(intervalMs, func() { r.collect(ch) })
	if id == 0 {
		return errs.NoMemory.Printf("stats reporter on queue %s", r.q.Name())
	}
	r.id, r.ch = id, ch
	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	go r.loop(ch, r.quit, r.done)
	mlog.Infof("stats reporter %s started on queue %s, interval %dms", r.instance, r.q.Name(), intervalMs)
	return nil
}

// Stop 取消采集事件并等待输出协程退出
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.id == 0 {
		r.mu.Unlock()
		return
	}
	r.q.Cancel(r.id)
	r.id = 0
	quit, done := r.quit, r.done
	r.mu.Unlock()

	close(quit)
	<-done
}

func (r *Reporter) snapshot() *Snapshot {
	return &Snapshot{
		Instance: r.instance,
		At:       time.Now(),
		Queues:   r.source(),
	}
}

func (r *Reporter) collect(ch chan<- *Snapshot) {
	select {
	case ch <- r.snapshot():
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			mlog.Warnf("stats reporter %s dropped %d snapshots", r.instance, n)
		}
	}
}

func (r *Reporter) loop(ch <-chan *Snapshot, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case s := <-ch:
			r.report(s)
		}
	}
}

// ReportOnce 在调用协程里立即采集并输出一次
func (r *Reporter) ReportOnce() {
	r.report(r.snapshot())
}

func (r *Reporter) report(s *Snapshot) {
	for _, sink := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := sink.Report(ctx, s); err != nil {
			mlog.Warnf("stats sink %T report error: %v", sink, err)
		}
		cancel()
	}
}
