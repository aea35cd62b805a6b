package sampler

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/inferbench/inferbench/pkg/models"
)

// HostSystemInfo reports the host's logical CPU count and total memory.
// Fields that cannot be read are left zero; host inspection is
// best-effort like the rest of the package.
func HostSystemInfo(ctx context.Context) models.SystemInfo {
	var info models.SystemInfo

	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCount = count
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		info.TotalMemoryGB = float64(vm.Total) / (1024 * 1024 * 1024)
	}
	return info
}
