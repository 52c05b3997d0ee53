package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats состояние процесса сервера
type ProcessStats struct {
	Uptime     string  `json:"uptime"`
	MemoryMB   float64 `json:"memory_mb"`
	HeapMB     float64 `json:"heap_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
	NumGC      uint32  `json:"num_gc"`
}

// ServerMetrics собирает метрики процесса для /api/stats
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// NewServerMetrics создает сборщик. Ошибка gopsutil не фатальна: CPU будет 0.
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// Uptime возвращает время работы сервера
func (sm *ServerMetrics) Uptime() string {
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

// CPUPercent возвращает загрузку CPU процессом в процентах
func (sm *ServerMetrics) CPUPercent() float64 {
	if sm.proc == nil {
		return 0
	}
	percent, err := sm.proc.CPUPercent()
	if err != nil {
		return 0
	}
	return percent
}

// Collect возвращает текущее состояние процесса
func (sm *ServerMetrics) Collect() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessStats{
		Uptime:     sm.Uptime(),
		MemoryMB:   float64(m.Alloc) / 1024 / 1024,
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		CPUPercent: sm.CPUPercent(),
		Goroutines: runtime.NumGoroutine(),
		NumGC:      m.NumGC,
	}
}
