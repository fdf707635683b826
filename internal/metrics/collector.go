package metrics

import (
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"

	"github.com/bit-cook/LiteMonitor/internal/config"
)

const powerSupplyDir = "/sys/class/power_supply"

// Collector reads live hardware metrics through gopsutil. It is safe for
// concurrent use: the broadcaster and HTTP handlers may call Snapshot at
// the same time.
type Collector struct {
	builder Builder
	port    atomic.Int32
	host    string
	started time.Time

	mu        sync.Mutex
	prevAt    time.Time
	prevRead  uint64
	prevWrite uint64
	prevSent  uint64
	prevRecv  uint64
}

func NewCollector(th config.Thresholds, port int) *Collector {
	c := &Collector{
		started: processStart(),
	}
	c.port.Store(int32(port))

	cpus, err := cpu.Counts(true)
	if err != nil {
		log.Debugf("metrics: cpu count: %v", err)
	}
	c.builder = Builder{Thresholds: th, CPUCount: cpus}

	if info, err := host.Info(); err == nil && info.Hostname != "" {
		c.host = info.Hostname
	} else {
		c.host, _ = os.Hostname()
	}

	// Prime the counters so the first snapshot reports rates rather than
	// totals since boot.
	c.mu.Lock()
	c.sampleIO(Readings{})
	c.mu.Unlock()
	if _, err := cpu.Percent(0, false); err != nil {
		log.Debugf("metrics: cpu baseline: %v", err)
	}

	return c
}

// SetPort updates the port advertised in the snapshot header, for when the
// listener was bound to an ephemeral port.
func (c *Collector) SetPort(port int) {
	c.port.Store(int32(port))
}

func (c *Collector) Snapshot() (any, error) {
	return c.Collect()
}

// Collect reads every sensor once. Individual sensor failures only blank
// that reading; an error is returned when neither CPU nor memory could be
// read.
func (c *Collector) Collect() (*Payload, error) {
	r := Readings{}
	var cpuErr, memErr error

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		r[KeyCPULoad] = pct[0]
	} else {
		cpuErr = err
		if cpuErr == nil {
			cpuErr = errors.New("no cpu sample")
		}
	}

	if t, ok := cpuTemperature(); ok {
		r[KeyCPUTemp] = t
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		r[KeyMemLoad] = vm.UsedPercent
		r[KeyMemUsed] = float64(vm.Used)
	} else {
		memErr = err
	}

	if avg, err := load.Avg(); err == nil {
		r[KeySysLoad1] = avg.Load1
	}

	if pct, ok := batteryPercent(powerSupplyDir); ok {
		r[KeyBatPercent] = pct
	}

	c.mu.Lock()
	c.sampleIO(r)
	c.mu.Unlock()

	if cpuErr != nil && memErr != nil {
		return nil, errors.Join(cpuErr, memErr)
	}

	sys := SysInfo{
		Host:   c.host,
		IP:     localIP(),
		Port:   int(c.port.Load()),
		Uptime: FormatUptime(time.Since(c.started)),
	}
	p := c.builder.Build(sys, r)
	return &p, nil
}

// sampleIO records disk and network rates since the previous sample.
// Callers hold c.mu.
func (c *Collector) sampleIO(r Readings) {
	now := time.Now()
	elapsed := now.Sub(c.prevAt)
	first := c.prevAt.IsZero()
	c.prevAt = now

	if counters, err := disk.IOCounters(); err == nil {
		var read, write uint64
		for _, st := range wholeDisks(counters) {
			read += st.ReadBytes
			write += st.WriteBytes
		}
		if !first {
			r[KeyDiskRead] = rate(c.prevRead, read, elapsed)
			r[KeyDiskWrite] = rate(c.prevWrite, write, elapsed)
		}
		c.prevRead, c.prevWrite = read, write
	}

	if counters, err := psnet.IOCounters(false); err == nil && len(counters) > 0 {
		sent, recv := counters[0].BytesSent, counters[0].BytesRecv
		if !first {
			r[KeyNetUp] = rate(c.prevSent, sent, elapsed)
			r[KeyNetDown] = rate(c.prevRecv, recv, elapsed)
		}
		c.prevSent, c.prevRecv = sent, recv
	}
}

// wholeDisks drops partitions (sda1, nvme0n1p2) whose parent device is also
// listed, plus virtual devices, so bytes are not counted twice.
func wholeDisks(all map[string]disk.IOCountersStat) []disk.IOCountersStat {
	result := make([]disk.IOCountersStat, 0, len(all))
	for name, st := range all {
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "dm-") {
			continue
		}
		partition := false
		for other := range all {
			if other != name && strings.HasPrefix(name, other) && isPartitionSuffix(other, name[len(other):]) {
				partition = true
				break
			}
		}
		if !partition {
			result = append(result, st)
		}
	}
	return result
}

// isPartitionSuffix reports whether s names a partition of parent: "1" after
// a name ending in a letter (sda1), "p1" after one ending in a digit
// (nvme0n1p1, mmcblk0p2). nvme0n10 is a namespace, not a partition of nvme0n1.
func isPartitionSuffix(parent, s string) bool {
	if parent == "" {
		return false
	}
	if last := parent[len(parent)-1]; last >= '0' && last <= '9' {
		var ok bool
		if s, ok = strings.CutPrefix(s, "p"); !ok {
			return false
		}
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var cpuSensorHints = []string{"coretemp", "k10temp", "zenpower", "cpu", "package", "tctl"}

// cpuTemperature returns the hottest CPU-looking sensor.
func cpuTemperature() (float64, bool) {
	temps, err := host.SensorsTemperatures()
	if err != nil && len(temps) == 0 {
		return 0, false
	}
	return hottest(temps)
}

func hottest(temps []host.TemperatureStat) (float64, bool) {
	var best float64
	found := false
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		match := false
		for _, hint := range cpuSensorHints {
			if strings.Contains(key, hint) {
				match = true
				break
			}
		}
		if !match || t.Temperature <= 0 {
			continue
		}
		if !found || t.Temperature > best {
			best = t.Temperature
			found = true
		}
	}
	return best, found
}

// localIP returns the first IPv4 address of an interface that is up and not
// a loopback, or 127.0.0.1.
func localIP() string {
	ifaces, err := psnet.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			ip, _, err := net.ParseCIDR(a.Addr)
			if err != nil {
				ip = net.ParseIP(a.Addr)
			}
			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				return ip.String()
			}
		}
	}
	return "127.0.0.1"
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func processStart() time.Time {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return time.Now()
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
