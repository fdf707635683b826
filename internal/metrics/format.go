package metrics

import (
	"fmt"
	"time"

	"github.com/bit-cook/LiteMonitor/internal/config"
)

const (
	kb = 1024.0
	mb = 1024.0 * kb
	gb = 1024.0 * mb

	// Non-zero readings never draw a bar thinner than this.
	minProgress = 0.05
)

func isRate(key string) bool {
	switch key {
	case KeyDiskRead, KeyDiskWrite, KeyNetUp, KeyNetDown:
		return true
	}
	return false
}

// formatValue renders a reading for display and picks its unit.
func formatValue(key string, v float64) (string, string) {
	switch {
	case key == KeyCPULoad, key == KeyMemLoad, key == KeyBatPercent:
		return fmt.Sprintf("%.0f", v), "%"
	case key == KeyCPUTemp:
		return fmt.Sprintf("%.0f", v), "°C"
	case key == KeyMemUsed:
		return fmt.Sprintf("%.1f", v/gb), "GB"
	case isRate(key):
		return formatRate(v)
	case key == KeySysLoad1:
		return fmt.Sprintf("%.2f", v), ""
	}
	return fmt.Sprintf("%.1f", v), ""
}

func formatRate(bytesPerSec float64) (string, string) {
	switch {
	case bytesPerSec >= mb:
		return fmt.Sprintf("%.1f", bytesPerSec/mb), "MB/s"
	case bytesPerSec >= 100*kb:
		return fmt.Sprintf("%.0f", bytesPerSec/kb), "KB/s"
	default:
		return fmt.Sprintf("%.1f", bytesPerSec/kb), "KB/s"
	}
}

// rangeFor returns the threshold range for key in the unit the range is
// configured in, together with the value converted to that unit.
func rangeFor(th config.Thresholds, key string, v float64) (config.Range, float64, bool) {
	switch key {
	case KeyCPULoad, KeyMemLoad:
		return th.Load, v, true
	case KeyCPUTemp:
		return th.Temp, v, true
	case KeyDiskRead, KeyDiskWrite:
		return th.DiskMB, v / mb, true
	case KeyNetUp:
		return th.NetUpMB, v / mb, true
	case KeyNetDown:
		return th.NetDownMB, v / mb, true
	}
	return config.Range{}, v, false
}

func (b Builder) status(key string, v float64) Status {
	r, x, ok := rangeFor(b.Thresholds, key, v)
	if !ok {
		return StatusNormal
	}
	switch {
	case r.Crit > 0 && x >= r.Crit:
		return StatusCrit
	case r.Warn > 0 && x >= r.Warn:
		return StatusWarn
	}
	return StatusNormal
}

// progress maps a reading onto 0..1 for the bar under it.
func (b Builder) progress(key string, v float64) float64 {
	var p float64
	switch {
	case key == KeyCPULoad, key == KeyMemLoad, key == KeyBatPercent, key == KeyCPUTemp:
		p = v / 100
	case key == KeySysLoad1:
		if b.CPUCount > 0 {
			p = v / float64(b.CPUCount)
		}
	case isRate(key):
		if r, x, ok := rangeFor(b.Thresholds, key, v); ok && r.Crit > 0 {
			p = x / r.Crit
		}
	}

	switch {
	case p <= 0:
		// Memory used has no bar of its own.
		if v > 0 && key != KeyMemUsed {
			return minProgress
		}
		return 0
	case p < minProgress:
		return minProgress
	case p > 1:
		return 1
	}
	return p
}

// FormatUptime renders d as dd.hh:mm:ss. Negative durations render as zero.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	mins := total % 3600 / 60
	secs := total % 60
	return fmt.Sprintf("%02d.%02d:%02d:%02d", days, hours, mins, secs)
}

// rate converts two cumulative counters into a per-second rate. Counter
// resets yield zero.
func rate(prev, cur uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed.Seconds()
}
