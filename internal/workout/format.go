package workout

import (
	"fmt"
	"time"
)

// FormatElapsed renders a stopwatch reading as MM:SS.cc. Minutes are not
// wrapped into hours.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d.%02d", total/60, total%60, (ms%1000)/10)
}

// FormatRest renders whole seconds of rest as MM:SS.
func FormatRest(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
