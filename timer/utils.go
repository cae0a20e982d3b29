package timer

import (
	"fmt"
	"time"
)

// FormatDuration converts a duration into a mm:ss string, rounding up to the
// next whole second.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
