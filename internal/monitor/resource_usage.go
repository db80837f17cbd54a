package monitor

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage is a point-in-time view of the monitor's footprint.
type ResourceUsage struct {
	ProcessRSSMB         int64 // this process
	ChildRSSMB           int64 // child processes, the browser when one is running
	Goroutines           int
	SystemMemUsedPercent float64
}

// GetResourceUsage samples memory usage. Fields that cannot be read stay zero.
func GetResourceUsage(ctx context.Context) ResourceUsage {
	usage := ResourceUsage{
		Goroutines: runtime.NumGoroutine(),
	}

	if vmStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		usage.SystemMemUsedPercent = vmStat.UsedPercent
	}

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return usage
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		usage.ProcessRSSMB = toMB(info.RSS)
	}
	// Children errors when there are none.
	if children, err := proc.ChildrenWithContext(ctx); err == nil {
		for _, child := range children {
			if info, err := child.MemoryInfoWithContext(ctx); err == nil {
				usage.ChildRSSMB += toMB(info.RSS)
			}
		}
	}
	return usage
}

func toMB(b uint64) int64 {
	return int64(b / 1024 / 1024)
}
