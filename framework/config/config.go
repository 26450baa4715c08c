package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fixkme/equeue/errs"
	"github.com/fixkme/equeue/lock"
	"github.com/fixkme/equeue/mlog"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"gopkg.in/yaml.v3"
)

var Config *AppConfig

const (
	DefaultQueueSize       = 64 << 10
	DefaultStatsIntervalMs = 5000
	DefaultReactorTickMs   = 1000
)

type AppConfig struct {
	InstanceId    string `json:"instance_id" yaml:"instance_id" mapstructure:"instance_id"` // 实例id, 为空时生成uuid
	AppVersion    string `json:"app_version" yaml:"app_version" mapstructure:"app_version"`
	LogConfig     `json:",inline" yaml:",inline" mapstructure:",inline"`
	Queues        []QueueConfig `json:"queues" yaml:"queues" mapstructure:"queues"`
	ReactorConfig `json:",inline" yaml:",inline" mapstructure:",inline"`
	StatsConfig   `json:",inline" yaml:",inline" mapstructure:",inline"`
	RedisConfig   `json:",inline" yaml:",inline" mapstructure:",inline"`
	IsDebug       bool `json:"is_debug" yaml:"is_debug" mapstructure:"is_debug"`
}

type QueueConfig struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`       // 为空时生成xid
	Size   int    `json:"size" yaml:"size" mapstructure:"size"`       // arena字节数
	Chain  string `json:"chain" yaml:"chain" mapstructure:"chain"`    // 挂载到的目标队列
	Agent  bool   `json:"agent" yaml:"agent" mapstructure:"agent"`    // 由独立协程执行Dispatch
	Locker string `json:"locker" yaml:"locker" mapstructure:"locker"` // spin(默认) 或 mutex
}

type LogConfig struct {
	LogPath       string `json:"log_path" yaml:"log_path" mapstructure:"log_path"`
	LogName       string `json:"log_name" yaml:"log_name" mapstructure:"log_name"`
	LogLevel      int    `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogStdOut     bool   `json:"log_std_out" yaml:"log_std_out" mapstructure:"log_std_out"`
	LogMaxSizeMB  int    `json:"log_max_size_mb" yaml:"log_max_size_mb" mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups" yaml:"log_max_backups" mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days" yaml:"log_max_age_days" mapstructure:"log_max_age_days"`
	LogCompress   bool   `json:"log_compress" yaml:"log_compress" mapstructure:"log_compress"`
}

type ReactorConfig struct {
	ReactorAddr      string `json:"reactor_addr" yaml:"reactor_addr" mapstructure:"reactor_addr"`                      // 为空不启动, 如 "tcp://127.0.0.1:7070"
	ReactorQueue     string `json:"reactor_queue" yaml:"reactor_queue" mapstructure:"reactor_queue"`                   // 由reactor驱动的队列
	ReactorMaxTickMs int    `json:"reactor_max_tick_ms" yaml:"reactor_max_tick_ms" mapstructure:"reactor_max_tick_ms"` // 队列为空时OnTick的间隔
	ReactorMulticore bool   `json:"reactor_multicore" yaml:"reactor_multicore" mapstructure:"reactor_multicore"`
}

type StatsConfig struct {
	StatsQueue      string `json:"stats_queue" yaml:"stats_queue" mapstructure:"stats_queue"` // 为空不上报
	StatsPrefix     string `json:"stats_prefix" yaml:"stats_prefix" mapstructure:"stats_prefix"`
	StatsIntervalMs int    `json:"stats_interval_ms" yaml:"stats_interval_ms" mapstructure:"stats_interval_ms"`
	StatsSink       string `json:"stats_sink" yaml:"stats_sink" mapstructure:"stats_sink"` // log 或 redis
	StatsExpireSec  int    `json:"stats_expire_sec" yaml:"stats_expire_sec" mapstructure:"stats_expire_sec"`
}

type RedisConfig struct {
	RedisMode       string `json:"redis_mode" yaml:"redis_mode" mapstructure:"redis_mode"`
	RedisAddr       string `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"` // 多个地址用,隔开
	RedisMasterName string `json:"redis_master_name" yaml:"redis_master_name" mapstructure:"redis_master_name"`
	RedisPassword   string `json:"redis_password" yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB         int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
}

func LoadConfig(configFile string, loadConfigFromEnv func(*AppConfig) error) error {
	Config = new(AppConfig)
	if len(configFile) != 0 {
		if err := loadConfigFromFile(configFile); err != nil {
			return err
		}
	}
	if loadConfigFromEnv != nil {
		if err := loadConfigFromEnv(Config); err != nil {
			return err
		}
	}
	Config.ApplyDefaults()
	return Config.Validate()
}

// loadConfigFromFile .yaml/.yml 按yaml解析, 其他按json
func loadConfigFromFile(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return errs.InvalidConfig.Wrap(err)
	}
	switch filepath.Ext(configFile) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, Config)
	default:
		err = json.Unmarshal(data, &Config)
	}
	if err != nil {
		return errs.InvalidConfig.Print(configFile).Wrap(err)
	}
	return nil
}

// ApplyDefaults 补全缺省值, 可以重复调用
func (conf *AppConfig) ApplyDefaults() {
	if conf.InstanceId == "" {
		conf.InstanceId = uuid.NewString()
	}
	if conf.LogName == "" {
		conf.LogName = "equeue"
	}
	for i := range conf.Queues {
		q := &conf.Queues[i]
		if q.Name == "" {
			q.Name = "q-" + xid.New().String()
		}
		if q.Size <= 0 {
			q.Size = DefaultQueueSize
		}
	}
	if conf.ReactorMaxTickMs <= 0 {
		conf.ReactorMaxTickMs = DefaultReactorTickMs
	}
	if conf.StatsIntervalMs <= 0 {
		conf.StatsIntervalMs = DefaultStatsIntervalMs
	}
	if conf.StatsSink == "" {
		conf.StatsSink = "log"
	}
	if conf.StatsPrefix == "" {
		conf.StatsPrefix = "equeue:stats:"
	}
}

// Validate 队列名唯一, 挂载目标、reactor和stats引用的队列必须存在
func (conf *AppConfig) Validate() error {
	names := make(map[string]*QueueConfig, len(conf.Queues))
	for i := range conf.Queues {
		q := &conf.Queues[i]
		if _, ok := names[q.Name]; ok {
			return errs.InvalidConfig.Printf("duplicate queue %s", q.Name)
		}
		if q.Size <= 0 {
			return errs.InvalidConfig.Printf("queue %s size %d", q.Name, q.Size)
		}
		if _, err := lock.New(q.Locker); err != nil {
			return errs.InvalidConfig.Print(q.Name).Wrap(err)
		}
		names[q.Name] = q
	}
	for _, q := range conf.Queues {
		if q.Chain == "" {
			continue
		}
		if q.Chain == q.Name {
			return errs.InvalidConfig.Printf("queue %s chained to itself", q.Name)
		}
		if _, ok := names[q.Chain]; !ok {
			return errs.InvalidConfig.Printf("queue %s chain target %s not found", q.Name, q.Chain)
		}
	}
	if conf.ReactorAddr != "" {
		q, ok := names[conf.ReactorQueue]
		if !ok {
			return errs.InvalidConfig.Printf("reactor queue %q not found", conf.ReactorQueue)
		}
		if q.Agent {
			return errs.InvalidConfig.Printf("reactor queue %s is driven by an agent", q.Name)
		}
	}
	if conf.StatsQueue != "" {
		if _, ok := names[conf.StatsQueue]; !ok {
			return errs.InvalidConfig.Printf("stats queue %q not found", conf.StatsQueue)
		}
		switch conf.StatsSink {
		case "log":
		case "redis":
			if conf.RedisAddr == "" {
				return errs.InvalidConfig.Print("redis stats sink without redis_addr")
			}
		default:
			return errs.InvalidConfig.Printf("unknown stats sink %s", conf.StatsSink)
		}
	}
	return nil
}

func (conf *AppConfig) ZapConfig() *mlog.ZapConfig {
	return &mlog.ZapConfig{
		Path:       conf.LogPath,
		Name:       conf.LogName,
		Level:      mlog.Level(conf.LogLevel),
		StdOut:     conf.LogStdOut,
		MaxSizeMB:  conf.LogMaxSizeMB,
		MaxBackups: conf.LogMaxBackups,
		MaxAgeDays: conf.LogMaxAgeDays,
		Compress:   conf.LogCompress,
	}
}

func (conf *AppConfig) JsonFormat() string {
	if conf == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
