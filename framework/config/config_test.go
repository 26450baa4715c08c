package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fixkme/equeue/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "equeue.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `{
		"log_level": 4,
		"queues": [
			{"name": "main", "size": 4096},
			{"name": "main.sub", "chain": "main"},
			{"agent": true}
		],
		"reactor_addr": "tcp://127.0.0.1:0",
		"reactor_queue": "main",
		"stats_queue": "main"
	}`)
	err := LoadConfig(file, func(c *AppConfig) error {
		c.AppVersion = "test"
		return nil
	})
	require.NoError(t, err)

	c := Config
	assert.Equal(t, "test", c.AppVersion)
	assert.Len(t, c.InstanceId, 36)
	assert.Equal(t, "equeue", c.LogName)
	require.Len(t, c.Queues, 3)
	assert.Equal(t, 4096, c.Queues[0].Size)
	assert.Equal(t, DefaultQueueSize, c.Queues[1].Size)
	assert.True(t, strings.HasPrefix(c.Queues[2].Name, "q-"))
	assert.Equal(t, DefaultReactorTickMs, c.ReactorMaxTickMs)
	assert.Equal(t, DefaultStatsIntervalMs, c.StatsIntervalMs)
	assert.Equal(t, "log", c.StatsSink)

	zc := c.ZapConfig()
	assert.Equal(t, "equeue", zc.Name)
	assert.EqualValues(t, 4, zc.Level)
	assert.Contains(t, c.JsonFormat(), `"reactor_queue": "main"`)
}

func TestLoadConfigEnvOnly(t *testing.T) {
	err := LoadConfig("", func(c *AppConfig) error {
		c.Queues = append(c.Queues, QueueConfig{Name: "env"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "env", Config.Queues[0].Name)

	err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.True(t, errors.Is(err, errs.InvalidConfig))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	err = LoadConfig(writeConfig(t, `{"queues": [`), nil)
	assert.True(t, errors.Is(err, errs.InvalidConfig), "got %v", err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		conf AppConfig
	}{
		{"duplicate", AppConfig{Queues: []QueueConfig{{Name: "a"}, {Name: "a"}}}},
		{"bad locker", AppConfig{Queues: []QueueConfig{{Name: "a", Locker: "rw"}}}},
		{"self chain", AppConfig{Queues: []QueueConfig{{Name: "a", Chain: "a"}}}},
		{"missing chain", AppConfig{Queues: []QueueConfig{{Name: "a", Chain: "b"}}}},
		{"reactor queue", AppConfig{ReactorConfig: ReactorConfig{ReactorAddr: "tcp://:1", ReactorQueue: "x"}}},
		{"reactor agent", AppConfig{
			Queues:        []QueueConfig{{Name: "a", Agent: true}},
			ReactorConfig: ReactorConfig{ReactorAddr: "tcp://:1", ReactorQueue: "a"},
		}},
		{"stats queue", AppConfig{StatsConfig: StatsConfig{StatsQueue: "x"}}},
		{"redis sink", AppConfig{
			Queues:      []QueueConfig{{Name: "a"}},
			StatsConfig: StatsConfig{StatsQueue: "a", StatsSink: "redis"},
		}},
		{"unknown sink", AppConfig{
			Queues:      []QueueConfig{{Name: "a"}},
			StatsConfig: StatsConfig{StatsQueue: "a", StatsSink: "kafka"},
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			conf := c.conf
			conf.ApplyDefaults()
			err := conf.Validate()
			assert.True(t, errors.Is(err, errs.InvalidConfig), "got %v", err)
		})
	}

	var nilConf *AppConfig
	assert.Equal(t, "{}", nilConf.JsonFormat())
}

func TestLoadYamlConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "equeue.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
instance_id: node-1
log_path: /tmp/equeue
queues:
  - name: main
    agent: true
  - name: timers
    size: 8192
    chain: main
stats_queue: main
stats_sink: redis
redis_addr: 127.0.0.1:6379
`), 0644))
	require.NoError(t, LoadConfig(file, nil))
	c := Config
	assert.Equal(t, "node-1", c.InstanceId)
	assert.Equal(t, "/tmp/equeue", c.LogPath)
	require.Len(t, c.Queues, 2)
	assert.True(t, c.Queues[0].Agent)
	assert.Equal(t, "main", c.Queues[1].Chain)
	assert.Equal(t, 8192, c.Queues[1].Size)
	assert.Equal(t, "redis", c.StatsSink)
	assert.Equal(t, "127.0.0.1:6379", c.RedisAddr)
}
