package core

import (
	"context"
	"time"

	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/mlog"
	"github.com/fixkme/equeue/reactor"
	"github.com/fixkme/equeue/registry"
	"github.com/panjf2000/gnet/v2"
)

var (
	Reactor *ReactorModule
)

type ReactorModule struct {
	name string
	r    *reactor.Reactor
}

func InitReactorModule(name string, conf *config.ReactorConfig, reg *registry.Registry) error {
	if conf.ReactorAddr == "" {
		return errs.InvalidConfig.Print("reactor addr is empty")
	}
	q, err := reg.Get(conf.ReactorQueue)
	if err != nil {
		return err
	}
	opt := &reactor.Options{
		Options: gnet.Options{
			Multicore: conf.ReactorMulticore,
			ReusePort: true,
		},
		Addr:     conf.ReactorAddr,
		MaxTick:  time.Duration(conf.ReactorMaxTickMs) * time.Millisecond,
		Registry: reg,
	}
	Reactor = &ReactorModule{name: name, r: reactor.New(q, opt)}
	return nil
}

func (m *ReactorModule) Reactor() *reactor.Reactor {
	return m.r
}

func (m *ReactorModule) OnInit() error {
	return nil
}

func (m *ReactorModule) Run() {
	if err := m.r.Run(); err != nil {
		mlog.Errorf("reactor %s exited with error: %v", m.name, err)
	}
}

func (m *ReactorModule) Destroy() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.r.Stop(ctx); err != nil {
		mlog.Errorf("reactor %s stop error: %v", m.name, err)
	}
}

func (m *ReactorModule) Name() string {
	return m.name
}
