package server

import (
	"fmt"
	"os"
	"time"

	"github.com/seabattle/servercheck/internal/client"
	"github.com/shirou/gopsutil/v3/process"
)

type processSampler struct {
	pid     int32
	started time.Time
}

func newProcessSampler(started time.Time) *processSampler {
	return &processSampler{pid: int32(os.Getpid()), started: started}
}

func (p *processSampler) sample() (*client.ProcessStats, error) {
	proc, err := process.NewProcess(p.pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", p.pid, err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	return &client.ProcessStats{
		PID:           p.pid,
		RSSBytes:      mem.RSS,
		CPUPercent:    cpu,
		UptimeSeconds: int64(time.Since(p.started).Seconds()),
	}, nil
}
