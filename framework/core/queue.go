package core

import (
	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/framework/config"
	g "github.com/fixkme/equeue/framework/go"
	"github.com/fixkme/equeue/lock"
	"github.com/fixkme/equeue/mlog"
	"github.com/fixkme/equeue/registry"
	"golang.org/x/sync/errgroup"
)

var (
	Queues *QueueModule
)

// QueueModule 按配置创建队列并注册, 配置了agent的队列各自有一个Dispatch协程
type QueueModule struct {
	name   string
	reg    *registry.Registry
	agents []*g.RoutineAgent
}

// InitQueueModule external 为由外部驱动的队列(比如reactor), 没有驱动者的队列会打印警告
func InitQueueModule(name string, confs []config.QueueConfig, external ...string) (err error) {
	reg := registry.New()
	defer func() {
		if err != nil {
			reg.DestroyPrefix("")
		}
	}()

	for _, c := range confs {
		locker, err := lock.New(c.Locker)
		if err != nil {
			return err
		}
		q, err := equeue.New(c.Size, &equeue.Options{Name: c.Name, Locker: locker})
		if err != nil {
			return err
		}
		if err = reg.Register(q); err != nil {
			q.Destroy()
			return err
		}
	}

	driven := make(map[string]bool, len(confs))
	for _, n := range external {
		driven[n] = true
	}
	m := &QueueModule{name: name, reg: reg}
	for _, c := range confs {
		if c.Chain != "" {
			if err = reg.Chain(c.Name, c.Chain); err != nil {
				return err
			}
			driven[c.Name] = true
		}
		if c.Agent {
			q, _ := reg.Get(c.Name)
			m.agents = append(m.agents, g.NewRoutineAgent(q))
			driven[c.Name] = true
		}
	}
	for _, c := range confs {
		if !driven[c.Name] {
			mlog.Warnf("queue %s has no dispatcher, set agent or chain", c.Name)
		}
	}
	Queues = m
	return nil
}

func (m *QueueModule) Registry() *registry.Registry {
	return m.reg
}

func (m *QueueModule) OnInit() error {
	mlog.Infof("%d queues, %d agents", m.reg.Len(), len(m.agents))
	return nil
}

func (m *QueueModule) Run() {
	var eg errgroup.Group
	for _, a := range m.agents {
		eg.Go(func() error {
			a.Run()
			return nil
		})
	}
	eg.Wait()
}

// Destroy 先停agent, 再销毁剩下的队列
func (m *QueueModule) Destroy() {
	for _, a := range m.agents {
		a.Close()
	}
	for _, a := range m.agents {
		<-a.Done()
	}
	m.reg.DestroyPrefix("")
}

func (m *QueueModule) Name() string {
	return m.name
}
