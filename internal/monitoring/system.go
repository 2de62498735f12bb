package monitoring

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemSnapshot is the host resource view embedded in the health payload.
type SystemSnapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedMB     float64 `json:"mem_used_mb"`
	MemTotalMB    float64 `json:"mem_total_mb"`
	DiskUsedGB    float64 `json:"disk_used_gb"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
	DiskUsedRatio float64 `json:"disk_used_ratio"`
}

// CollectSystem samples host CPU, memory and disk usage. Sampling errors
// leave the corresponding fields at zero rather than failing the health check.
func CollectSystem() SystemSnapshot {
	var snap SystemSnapshot

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsedMB = float64(vm.Used) / 1024 / 1024
		snap.MemTotalMB = float64(vm.Total) / 1024 / 1024
	}
	if du, err := disk.Usage("/"); err == nil {
		snap.DiskUsedGB = float64(du.Used) / 1024 / 1024 / 1024
		snap.DiskTotalGB = float64(du.Total) / 1024 / 1024 / 1024
		snap.DiskUsedRatio = du.UsedPercent / 100
	}
	return snap
}
