package core

import (
	"time"

	"github.com/fixkme/equeue/equeue"
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/registry"
	"github.com/fixkme/equeue/stats"
)

var (
	Stats *StatsModule
)

type StatsModule struct {
	name     string
	interval int
	reporter *stats.Reporter
	quit     chan struct{}
}

// InitStatsModule redis sink 需要先 InitRedis
func InitStatsModule(name, instance string, conf *config.StatsConfig, reg *registry.Registry) error {
	q, err := reg.Get(conf.StatsQueue)
	if err != nil {
		return err
	}
	var sink stats.Sink = stats.LogSink{}
	if conf.StatsSink == "redis" {
		expire := time.Duration(conf.StatsExpireSec) * time.Second
		sink = stats.NewRedisSink(Redis.GetCmdable(), conf.StatsPrefix, expire)
	}
	source := func() []equeue.Stats { return reg.Stats("") }
	Stats = &StatsModule{
		name:     name,
		interval: conf.StatsIntervalMs,
		reporter: stats.NewReporter(q, instance, source, sink),
		quit:     make(chan struct{}),
	}
	return nil
}

func (m *StatsModule) OnInit() error {
	return m.reporter.Start(m.interval)
}

func (m *StatsModule) Run() {
	<-m.quit
}

func (m *StatsModule) Destroy() {
	m.reporter.Stop()
	m.reporter.ReportOnce()
	close(m.quit)
}

func (m *StatsModule) Name() string {
	return m.name
}
