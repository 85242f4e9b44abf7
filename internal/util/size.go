package util

import "fmt"

// SizeMB renders a byte count as megabytes with two decimals, e.g. "1.50 MB".
func SizeMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}
