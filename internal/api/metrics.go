package api

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics это метрики процесса редактора для /api/stats
type ServerMetrics struct {
	StartTime time.Time

	procOnce sync.Once
	proc     *process.Process
	procErr  error
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{StartTime: time.Now()}
}

// GetUptime возвращает время работы в виде "1д 2ч 3м 4с"
func (sm *ServerMetrics) GetUptime() string {
	return formatUptime(time.Since(sm.StartTime))
}

func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	days, rest := total/86400, total%86400
	hours, rest := rest/3600, rest%3600
	minutes, seconds := rest/60, rest%60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetMemoryUsage возвращает занятую кучу в MB
func (sm *ServerMetrics) GetMemoryUsage() (float64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return bytesToMB(m.Alloc), nil
}

func (sm *ServerMetrics) process() (*process.Process, error) {
	sm.procOnce.Do(func() {
		sm.proc, sm.procErr = process.NewProcess(int32(os.Getpid()))
	})
	return sm.proc, sm.procErr
}

// GetCPUUsage возвращает загрузку CPU процессом в процентах.
// Если метрика процесса недоступна, возвращается системная.
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := sm.process()
	if err == nil {
		var percent float64
		if percent, err = proc.CPUPercent(); err == nil {
			return percent, nil
		}
	}
	return systemCPU(100 * time.Millisecond)
}

// GetSystemCPUUsage возвращает общую загрузку CPU системы
func (sm *ServerMetrics) GetSystemCPUUsage() (float64, error) {
	return systemCPU(time.Second)
}

func systemCPU(interval time.Duration) (float64, error) {
	percents, err := cpu.Percent(interval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu percent: no data")
	}
	return percents[0], nil
}

// GetDetailedMemoryStats возвращает детальную статистику памяти
func (sm *ServerMetrics) GetDetailedMemoryStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := map[string]interface{}{
		"alloc_mb":       bytesToMB(m.Alloc),
		"total_alloc_mb": bytesToMB(m.TotalAlloc),
		"sys_mb":         bytesToMB(m.Sys),
		"heap_alloc_mb":  bytesToMB(m.HeapAlloc),
		"num_gc":         m.NumGC,
	}
	if proc, err := sm.process(); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			stats["rss_mb"] = bytesToMB(info.RSS)
		}
	}
	return stats
}

func bytesToMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
