// Package onewire reads a 1-wire temperature sensor through the kernel's
// w1 sysfs interface, purely informational input to the clock-correction
// stub (spec.md §4.8, §6).
package onewire

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrCRC is returned when the sensor's sysfs line does not report a
// valid CRC ("YES").
var ErrCRC = errors.New("onewire: CRC check failed")

// ReadTemperatureC reads /sys/bus/w1/devices/<serial>/w1_slave and
// returns the temperature in degrees Celsius.
func ReadTemperatureC(serial string) (float64, error) {
	path := fmt.Sprintf("/sys/bus/w1/devices/%s/w1_slave", serial)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("onewire: read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("onewire: %s: short read", path)
	}
	if !strings.Contains(lines[0], "YES") {
		return 0, ErrCRC
	}

	idx := strings.Index(lines[1], "t=")
	if idx < 0 {
		return 0, fmt.Errorf("onewire: %s: no t= field", path)
	}
	milliC, err := strconv.Atoi(strings.TrimSpace(lines[1][idx+2:]))
	if err != nil {
		return 0, fmt.Errorf("onewire: %s: parse temperature: %w", path, err)
	}
	return float64(milliC) / 1000.0, nil
}
