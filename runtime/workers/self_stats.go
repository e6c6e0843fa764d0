package workers

import (
	"context"
	"livechat/contract"
	"livechat/domain/event"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*SelfStatsWorker)(nil)

// SelfStatsWorker samples memory, CPU and OS status of the running process.
type SelfStatsWorker struct {
	log       *slog.Logger
	telemetry chan<- event.Event
	interval  time.Duration
}

func NewSelfStatsWorker(log *slog.Logger, telemetry chan<- event.Event, interval time.Duration) *SelfStatsWorker {
	return &SelfStatsWorker{log: log, telemetry: telemetry, interval: interval}
}

func (w SelfStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			select {
			case w.telemetry <- event.New(event.SelfStatsType, stats):
			default:
				w.log.Debug("Self stats sample lost")
			}
		}
	}
}

func selfStats(p *process.Process) (event.SelfStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return event.SelfStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return event.SelfStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return event.SelfStats{}, err
	}
	return event.SelfStats{PID: p.Pid, RSS: memInfo.RSS, CPU: cpuPercent, Status: status}, nil
}
