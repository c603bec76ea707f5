package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает сведения о процессе сервера карт
type ServerMetrics struct {
	StartTime time.Time
}

// ServerSnapshot - состояние процесса на момент запроса
type ServerSnapshot struct {
	Uptime       string  `json:"uptime"`
	UptimeSec    int64   `json:"uptime_sec"`
	HeapMB       float64 `json:"heap_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
	Goroutines   int     `json:"goroutines"`
	CPUPercent   float64 `json:"cpu_percent"`
	HostMemUsed  float64 `json:"host_mem_used_percent"`
	ServerTimeMs int64   `json:"server_time_ms"`
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{StartTime: time.Now()}
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	return formatUptime(time.Since(sm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

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

// GetCPUUsage возвращает использование CPU процессом в процентах.
// Если метрика процесса недоступна, возвращает загрузку системы.
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}

	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("cpu: нет данных")
	}
	return pcts[0], nil
}

// GetHostMemoryUsage возвращает занятую память хоста в процентах
func (sm *ServerMetrics) GetHostMemoryUsage() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Snapshot собирает состояние процесса; недоступные системные метрики остаются нулевыми
func (sm *ServerMetrics) Snapshot() ServerSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(sm.StartTime)
	s := ServerSnapshot{
		Uptime:       formatUptime(uptime),
		UptimeSec:    int64(uptime.Seconds()),
		HeapMB:       float64(m.HeapAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		ServerTimeMs: time.Now().UnixMilli(),
	}
	s.CPUPercent, _ = sm.GetCPUUsage()
	s.HostMemUsed, _ = sm.GetHostMemoryUsage()
	return s
}
