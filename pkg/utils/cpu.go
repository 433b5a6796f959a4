package utils

import (
	"errors"

	"github.com/shirou/gopsutil/cpu"
)

// GetCPUUsage returns the host-wide CPU usage in percent since the previous
// call.
func GetCPUUsage() (float64, error) {
	usage, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(usage) == 0 {
		return 0, errors.New("cpu usage unavailable")
	}
	return usage[0], nil
}
