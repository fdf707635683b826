package metrics

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// batteryPercent reads the charge of the first battery exposed under the
// power_supply class directory. Desktops have none.
func batteryPercent(root string) (float64, bool) {
	matches, err := filepath.Glob(filepath.Join(root, "BAT*", "capacity"))
	if err != nil || len(matches) == 0 {
		return 0, false
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
