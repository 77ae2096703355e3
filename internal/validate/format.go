package validate

import (
	"fmt"
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count for display: "0 Bytes", "1.46 KB",
// "1 MB". Values are rounded to two decimals with trailing zeros
// trimmed.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	return trimFloat(math.Round(v*100)/100) + " " + sizeUnits[i]
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
