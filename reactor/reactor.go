// Package reactor 用gnet的事件引擎驱动一个队列
// 队列的后台钩子记录下一个到期时间, gnet的OnTick执行 Dispatch(0) 并返回下一次OnTick的延迟.
// 同时提供一个简单的行协议, 用于查看统计和远程投递定时消息
package reactor

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/fixkme/equeue/clock"
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/mlog"
	"github.com/fixkme/equeue/registry"
	"github.com/panjf2000/gnet/v2"
	"github.com/panjf2000/gnet/v2/pkg/pool/byteslice"
)

const maxLineSize = 4096

type Options struct {
	gnet.Options
	Addr     string        // "tcp://127.0.0.1:7070"
	MaxTick  time.Duration // 队列为空时OnTick的间隔, 也是其他协程投递的最大延迟
	Registry *registry.Registry
	OnBoot   func(eng gnet.Engine)
}

type Reactor struct {
	gnet.BuiltinEventEngine
	gnet.Engine // use for stop
	q           *equeue.Queue
	opt         *Options
	deadline    atomic.Int64 // 下一个到期tick, -1表示没有事件
}

type session struct {
	buff []byte
}

func New(q *equeue.Queue, opt *Options) *Reactor {
	if opt.MaxTick <= 0 {
		opt.MaxTick = 100 * time.Millisecond
	}
	r := &Reactor{q: q, opt: opt}
	r.deadline.Store(-1)
	q.Background(r.onNext)
	return r
}

func (r *Reactor) Queue() *equeue.Queue {
	return r.q
}

// Run 阻塞直到引擎停止
func (r *Reactor) Run() error {
	opts := r.opt.Options
	opts.Ticker = true
	return gnet.Run(r, r.opt.Addr, gnet.WithOptions(opts))
}

func (r *Reactor) Stop(ctx context.Context) error {
	r.q.Background(nil)
	return r.Engine.Stop(ctx)
}

// onNext 后台钩子, 相对时间换算成绝对tick, OnTick时再计算剩余时间
func (r *Reactor) onNext(ms int) {
	if ms < 0 {
		r.deadline.Store(-1)
		return
	}
	r.deadline.Store(int64(r.q.Tick() + uint32(ms)))
}

func (r *Reactor) delay() time.Duration {
	t := r.deadline.Load()
	if t < 0 {
		return r.opt.MaxTick
	}
	d := time.Duration(clock.Clamp(uint32(t), r.q.Tick())) * time.Millisecond
	return min(d, r.opt.MaxTick)
}

// 在gnet.Run协程里被调用
func (r *Reactor) OnBoot(eng gnet.Engine) (action gnet.Action) {
	r.Engine = eng
	mlog.Infof("reactor for queue %s listening on %s", r.q.Name(), r.opt.Addr)
	if cb := r.opt.OnBoot; cb != nil {
		cb(eng)
	}
	return
}

func (r *Reactor) OnShutdown(eng gnet.Engine) {
	mlog.Infof("reactor for queue %s shutdown", r.q.Name())
}

// OnTick 在ticker协程里执行队列
func (r *Reactor) OnTick() (delay time.Duration, action gnet.Action) {
	r.q.Dispatch(0)
	return r.delay(), gnet.None
}

func (r *Reactor) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	mlog.Debugf("reactor %s connection opened", c.RemoteAddr())
	c.SetContext(&session{})
	return
}

func (r *Reactor) OnTraffic(c gnet.Conn) (action gnet.Action) {
	s := c.Context().(*session)
	data, err := c.Next(-1)
	if err != nil && err != io.ErrShortBuffer {
		mlog.Errorf("conn.Next err:%v", err)
		return gnet.Close
	}
	s.buff = append(s.buff, data...)

	out := byteslice.Get(maxLineSize)[:0]
	defer func() {
		if len(out) > 0 {
			c.Write(out)
		}
		byteslice.Put(out)
	}()
	for {
		idx := bytes.IndexByte(s.buff, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(s.buff[:idx], "\r"))
		s.buff = s.buff[idx+1:]
		reply, quit := r.exec(line, c)
		out = append(out, reply...)
		if quit {
			return gnet.Close
		}
	}
	if len(s.buff) > maxLineSize {
		out = append(out, "ERR line too long\n"...)
		return gnet.Close
	}
	if len(s.buff) == 0 {
		s.buff = nil
	}
	return
}
