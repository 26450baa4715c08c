package reactor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fixkme/equeue/equeue"
	"github.com/panjf2000/gnet/v2"
)

// exec 执行一行命令, 返回回复和是否关闭连接
//
//	ping                 pong
//	tick                 队列当前tick
//	stats [prefix]       每个队列一行统计
//	after <ms> <text>    ms毫秒后把text写回连接, 返回事件句柄
//	every <ms> <text>    周期写回
//	cancel <id>          取消after/every投递的事件
//	left <id>            剩余毫秒
//	break <prefix>       让前缀下的队列Dispatch返回
//	quit
func (r *Reactor) exec(line string, c gnet.Conn) (reply string, quit bool) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", false
	}
	switch strings.ToLower(args[0]) {
	case "ping":
		return "pong\n", false
	case "quit":
		return "bye\n", true
	case "tick":
		return strconv.FormatUint(uint64(r.q.Tick()), 10) + "\n", false
	case "stats":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		return r.stats(prefix), false
	case "after", "every":
		if len(args) < 3 {
			return "ERR usage: " + args[0] + " <ms> <text>\n", false
		}
		ms, err := strconv.Atoi(args[1])
		if err != nil || ms < 0 {
			return "ERR invalid ms\n", false
		}
		msg := []byte(strings.Join(args[2:], " ") + "\n")
		write := func() { c.AsyncWrite(msg, nil) }
		var id int
		if args[0] == "after" {
			id = r.q.CallIn(ms, write)
		} else {
			id = r.q.CallEvery(ms, write)
		}
		if id == 0 {
			return "ERR no memory\n", false
		}
		return fmt.Sprintf("OK %d\n", id), false
	case "cancel", "left":
		if len(args) < 2 {
			return "ERR usage: " + args[0] + " <id>\n", false
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return "ERR invalid id\n", false
		}
		if args[0] == "cancel" {
			if r.q.Cancel(id) {
				return "OK\n", false
			}
			return "ERR not pending\n", false
		}
		ms, ok := r.q.TimeLeft(id)
		if !ok {
			return "ERR not found\n", false
		}
		return strconv.Itoa(ms) + "\n", false
	case "break":
		if r.opt.Registry == nil || len(args) < 2 {
			r.q.Break()
			return "OK 1\n", false
		}
		return fmt.Sprintf("OK %d\n", r.opt.Registry.BreakPrefix(args[1])), false
	}
	return "ERR unknown command " + args[0] + "\n", false
}

func (r *Reactor) stats(prefix string) string {
	var all []equeue.Stats
	if r.opt.Registry != nil {
		all = r.opt.Registry.Stats(prefix)
	} else {
		all = []equeue.Stats{r.q.Stats()}
	}
	var sb strings.Builder
	for _, s := range all {
		fmt.Fprintf(&sb, "%s pending=%d pool=%d/%d handles=%d posted=%d fired=%d cancelled=%d\n",
			s.Name, s.Pending, s.PoolUsed, s.PoolSize, s.Handles, s.Posted, s.Fired, s.Cancelled)
	}
	sb.WriteString("END\n")
	return sb.String()
}
