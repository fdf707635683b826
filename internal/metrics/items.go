package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/bit-cook/LiteMonitor/internal/config"
)

// Readings maps an item key to its raw value. Rates are in bytes per
// second, temperatures in °C, memory in bytes and loads in percent. A key
// that is absent has no reading this tick.
type Readings map[string]float64

const (
	KeyCPULoad    = "CPU.Load"
	KeyCPUTemp    = "CPU.Temp"
	KeyMemLoad    = "MEM.Load"
	KeyMemUsed    = "MEM.Used"
	KeyDiskRead   = "DISK.Read"
	KeyDiskWrite  = "DISK.Write"
	KeyNetUp      = "NET.Up"
	KeyNetDown    = "NET.Down"
	KeySysLoad1   = "SYS.Load1"
	KeyBatPercent = "BAT.Percent"
)

type itemDef struct {
	key   string
	name  string
	group string
	sort  int
}

var defs = []itemDef{
	{KeyCPULoad, "CPU Load", "CPU", 0},
	{KeyCPUTemp, "CPU Temp", "CPU", 1},
	{KeyMemLoad, "Memory Load", "MEM", 10},
	{KeyMemUsed, "Memory Used", "MEM", 11},
	{KeyDiskRead, "Disk Read", "DISK", 20},
	{KeyDiskWrite, "Disk Write", "DISK", 21},
	{KeyNetUp, "Upload", "NET", 30},
	{KeyNetDown, "Download", "NET", 31},
	{KeySysLoad1, "Load Avg (1m)", "SYS", 40},
	{KeyBatPercent, "Battery", "BAT", 50},
}

var groupNames = map[string]string{
	"CPU":  "Processor",
	"MEM":  "Memory",
	"DISK": "Disk",
	"NET":  "Network",
	"SYS":  "System",
	"BAT":  "Battery",
}

// The headline readings, drawn as gauges rather than rows.
var primaryKeys = map[string]bool{
	KeyCPULoad:    true,
	KeyMemLoad:    true,
	KeyBatPercent: true,
}

var (
	orderOnce sync.Once
	ordered   []itemDef
)

// orderedDefs groups items together, orders the groups by their smallest
// sort index and then orders items inside a group.
func orderedDefs() []itemDef {
	orderOnce.Do(func() {
		groupMin := make(map[string]int)
		for _, d := range defs {
			if m, ok := groupMin[d.group]; !ok || d.sort < m {
				groupMin[d.group] = d.sort
			}
		}
		ordered = append([]itemDef(nil), defs...)
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if a.group != b.group {
				return groupMin[a.group] < groupMin[b.group]
			}
			return a.sort < b.sort
		})
	})
	return ordered
}

// Builder turns raw readings into display items.
type Builder struct {
	Thresholds config.Thresholds
	CPUCount   int
}

func (b Builder) Build(sys SysInfo, r Readings) Payload {
	items := make([]Item, 0, len(defs))
	for _, d := range orderedDefs() {
		v, ok := r[d.key]
		// Battery rows only make sense on machines that have one.
		if !ok && strings.HasPrefix(d.key, "BAT") {
			continue
		}

		item := Item{
			Key:       d.key,
			Name:      d.name,
			Value:     "--",
			GroupID:   d.group,
			GroupName: groupNames[d.group],
			Primary:   primaryKeys[d.key],
		}
		if ok {
			item.Value, item.Unit = formatValue(d.key, v)
			item.Pct = b.progress(d.key, v) * 100
			item.Status = b.status(d.key, v)
		}
		items = append(items, item)
	}
	return Payload{Sys: sys, Items: items}
}
