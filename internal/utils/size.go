package utils

import "strconv"

var byteSizeUnits = [...]string{"B", "KiB", "MiB", "GiB", "TiB"}

// FormatByteSize renders a byte count with binary units, for example
// "512 B" or "1.5 KiB". Negative counts render as "0 B".
func FormatByteSize(size int64) string {
	if size < 1024 {
		if size < 0 {
			size = 0
		}
		return strconv.FormatInt(size, 10) + " " + byteSizeUnits[0]
	}
	value := float64(size)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(byteSizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + byteSizeUnits[unitIndex]
}
