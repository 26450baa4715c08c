package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fixkme/equeue/framework/app"
	"github.com/fixkme/equeue/framework/config"
	"github.com/fixkme/equeue/framework/core"
	"github.com/fixkme/equeue/mlog"
	"github.com/fixkme/equeue/registry"
)

var configFile = flag.String("config", "", "config file (.json, .yaml)")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "equeue: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadConfig(*configFile, loadConfigFromEnv); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conf := config.Config
	syncLog, err := core.InitLog(conf)
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	defer syncLog()
	mlog.Infof("equeue %s instance %s config:\n%s", conf.AppVersion, conf.InstanceId, conf.JsonFormat())

	if conf.RedisAddr != "" {
		if err := core.InitRedis(&conf.RedisConfig); err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer core.Redis.Stop()
	}

	var external []string
	if conf.ReactorAddr != "" {
		external = append(external, conf.ReactorQueue)
	}
	if err := core.InitQueueModule("queues", conf.Queues, external...); err != nil {
		return fmt.Errorf("init queues: %w", err)
	}
	reg := core.Queues.Registry()
	mods := []app.Module{core.Queues}

	if conf.ReactorAddr != "" {
		if err := core.InitReactorModule("reactor", &conf.ReactorConfig, reg); err != nil {
			core.Queues.Destroy()
			return fmt.Errorf("init reactor: %w", err)
		}
		mods = append(mods, core.Reactor)
	}
	if conf.StatsQueue != "" {
		if err := core.InitStatsModule("stats", conf.InstanceId, &conf.StatsConfig, reg); err != nil {
			core.Queues.Destroy()
			return fmt.Errorf("init stats: %w", err)
		}
		mods = append(mods, core.Stats)
	}

	if core.Redis != nil {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		channel := "equeue:ctl:" + conf.InstanceId
		if err := core.SubscribeControl(ctx, channel, control(reg)); err != nil {
			mlog.Warnf("subscribe %s failed: %v", channel, err)
		}
	}

	return app.DefaultApp().Run(mods...)
}

// control 远程控制命令
//
//	break <prefix>         让前缀下的队列Dispatch返回
//	chain <source> [target] 挂载或者解除挂载
func control(reg *registry.Registry) func(line string) string {
	return func(line string) string {
		args := strings.Fields(line)
		if len(args) < 2 {
			return "ERR usage"
		}
		switch args[0] {
		case "break":
			return fmt.Sprintf("OK %d", reg.BreakPrefix(args[1]))
		case "chain":
			target := ""
			if len(args) > 2 {
				target = args[2]
			}
			if err := reg.Chain(args[1], target); err != nil {
				return "ERR " + err.Error()
			}
			return "OK"
		}
		return "ERR unknown command " + args[0]
	}
}

func loadConfigFromEnv(conf *config.AppConfig) error {
	if v := os.Getenv("EQUEUE_INSTANCE_ID"); v != "" {
		conf.InstanceId = v
	}
	if v := os.Getenv("EQUEUE_REDIS_ADDR"); v != "" {
		conf.RedisAddr = v
	}
	if v := os.Getenv("EQUEUE_LOG_LEVEL"); v != "" {
		level, err := mlog.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("EQUEUE_LOG_LEVEL: %w", err)
		}
		conf.LogLevel = int(level)
	}
	return nil
}
