package clock

import (
	"sync"
	"time"
)

// Clock 单调毫秒计数, 32位回绕
type Clock interface {
	Tick() uint32
}

// Sema 二值信号量, Signal 多次只保留一次
// Wait(ms) ms<0 一直等待; 返回true表示被Signal唤醒, false表示超时
type Sema interface {
	Signal()
	Wait(ms int) bool
}

// Diff 返回 a-b, 跨越回绕也正确
func Diff(a, b uint32) int {
	return int(int32(a - b))
}

// Clamp 返回 Diff(a, b), 小于0时为0
func Clamp(a, b uint32) int {
	d := Diff(a, b)
	if d < 0 {
		return 0
	}
	return d
}

type systemClock struct {
	start time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{start: time.Now()}
}

// Tick time.Since 使用单调时钟, 修改系统时间不影响
func (c *systemClock) Tick() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

type sema struct {
	ch chan struct{}
}

func NewSema() Sema {
	return &sema{ch: make(chan struct{}, 1)}
}

func (s *sema) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *sema) Wait(ms int) bool {
	if ms < 0 {
		<-s.ch
		return true
	}
	if ms == 0 {
		select {
		case <-s.ch:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}

// Sim 虚拟时间, 只有Advance或者Wait超时才会前进, 测试用
type Sim struct {
	mu  sync.Mutex
	now uint32
}

func NewSim(start uint32) *Sim {
	return &Sim{now: start}
}

func (s *Sim) Tick() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Sim) Advance(ms int) {
	if ms <= 0 {
		return
	}
	s.mu.Lock()
	s.now += uint32(ms)
	s.mu.Unlock()
}

// NewSema 超时等待直接推进虚拟时间
func (s *Sim) NewSema() Sema {
	return &simSema{sim: s, ch: make(chan struct{}, 1)}
}

type simSema struct {
	sim *Sim
	ch  chan struct{}
}

func (s *simSema) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *simSema) Wait(ms int) bool {
	if ms < 0 {
		<-s.ch
		return true
	}
	select {
	case <-s.ch:
		return true
	default:
	}
	s.sim.Advance(ms)
	return false
}
