package utils

import (
	"fmt"
	"time"
)

var byteUnits = []struct {
	size   uint64
	suffix string
}{
	{1000 * 1000 * 1000, "GB"},
	{1000 * 1000, "MB"},
	{1000, "KB"},
}

// DisplayB formats a byte count with decimal units.
func DisplayB(bytes uint64) string {
	for _, u := range byteUnits {
		if bytes >= u.size {
			return fmt.Sprintf("%.2f %s", float64(bytes)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}

// DisplayDuration rounds d for log output.
func DisplayDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}
