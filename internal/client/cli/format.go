package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// formatBytes renders n in binary units with at most two decimals,
// e.g. 1536 -> "1.5 KB".
func formatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i, v := 0, float64(n)
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

const barWidth = 30

// progressLine renders a one-line progress bar for pct (0..100).
func progressLine(label string, pct int) string {
	pct = max(0, min(pct, 100))
	filled := barWidth * pct / 100
	return fmt.Sprintf("\r%s [%s%s] %3d%%", label,
		strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled), pct)
}
