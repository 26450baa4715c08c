package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/fixkme/equeue/mlog"
	"github.com/redis/go-redis/v9"
)

// LogSink 每个队列一行info日志
type LogSink struct{}

func (LogSink) Report(_ context.Context, s *Snapshot) error {
	for i := range s.Queues {
		st := &s.Queues[i]
		mlog.Infof("stats %s queue=%s pending=%d pool=%d/%d handles=%d posted=%d fired=%d cancelled=%d alloc_fails=%d passes=%d",
			s.Instance, st.Name, st.Pending, st.PoolUsed, st.PoolSize, st.Handles,
			st.Posted, st.Fired, st.Cancelled, st.AllocFails, st.Passes)
	}
	return nil
}

// HashWriter redis.Cmdable 的子集
type HashWriter interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisSink 每个队列一个hash: <prefix><instance>:<queue>
type RedisSink struct {
	w      HashWriter
	prefix string
	expire time.Duration
}

// NewRedisSink expire<=0 时不设置过期
func NewRedisSink(w HashWriter, prefix string, expire time.Duration) *RedisSink {
	return &RedisSink{w: w, prefix: prefix, expire: expire}
}

func (s *RedisSink) Key(instance, queue string) string {
	return s.prefix + instance + ":" + queue
}

func (s *RedisSink) Report(ctx context.Context, snap *Snapshot) error {
	at := strconv.FormatInt(snap.At.UnixMilli(), 10)
	for i := range snap.Queues {
		st := &snap.Queues[i]
		key := s.Key(snap.Instance, st.Name)
		fields := map[string]any{
			"pending":     st.Pending,
			"pool_size":   st.PoolSize,
			"pool_used":   st.PoolUsed,
			"handles":     st.Handles,
			"posted":      st.Posted,
			"fired":       st.Fired,
			"cancelled":   st.Cancelled,
			"alloc_fails": st.AllocFails,
			"passes":      st.Passes,
			"updated_at":  at,
		}
		if err := s.w.HSet(ctx, key, fields).Err(); err != nil {
			return err
		}
		if s.expire > 0 {
			if err := s.w.Expire(ctx, key, s.expire).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
