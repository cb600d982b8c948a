package explorer

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// statusTimeout bounds the liveness round trip in Status.
const statusTimeout = time.Second

// Status reports whether the explorer is running and answering.
type Status struct {
	Running            bool    `json:"running"`
	PIDs               []int32 `json:"pids"`
	WebSocketConnected bool    `json:"websocket_connected"`
	URL                string  `json:"url"`
}

// ProcessFinder returns the PIDs of processes whose command line contains
// pattern.
type ProcessFinder func(ctx context.Context, pattern string) ([]int32, error)

// ScanProcesses walks the process table, skipping the current process.
func ScanProcesses(ctx context.Context, pattern string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	self := int32(os.Getpid())
	var pids []int32
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			// Exited, or not ours to read.
			continue
		}
		if strings.Contains(cmdline, pattern) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

// Status checks the process table and pings the WebSocket with getState.
// Neither check failing is an error.
func (c *Client) Status(ctx context.Context) Status {
	st := Status{PIDs: []int32{}, URL: c.url}

	if c.processes != nil && c.processName != "" {
		pids, err := c.processes(ctx, c.processName)
		if err != nil {
			c.logger.Debug("process scan failed", zap.Error(err))
		} else if len(pids) > 0 {
			st.Running = true
			st.PIDs = pids
		}
	}

	if _, err := c.send(ctx, statusTimeout, "getState", nil); err != nil {
		c.logger.Debug("explorer ping failed", zap.Error(err))
	} else {
		st.WebSocketConnected = true
	}
	return st
}
