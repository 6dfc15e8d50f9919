package bluraysup

import (
	"fmt"
	"math"
	"time"
)

// PtsClockRate is the frequency of PGS presentation and decoding timestamps.
const PtsClockRate = 90000

// PtsToDuration converts time in 90kHz ticks to a duration.
func PtsToDuration(pts int64) time.Duration {
	return time.Duration(pts) * time.Millisecond / 90
}

// DurationToPts converts a duration to 90kHz ticks, rounding down.
func DurationToPts(d time.Duration) int64 {
	return int64(d * 90 / time.Millisecond)
}

// PtsToSeconds converts time in 90kHz ticks to seconds.
func PtsToSeconds(pts int64) float64 {
	return float64(pts) / PtsClockRate
}

// SecondsToDuration converts a host playback position in seconds. Infinite and NaN
// positions map to Unbounded and zero respectively.
func SecondsToDuration(seconds float64) time.Duration {
	switch {
	case math.IsNaN(seconds):
		return 0
	case math.IsInf(seconds, 1) || seconds >= float64(Unbounded)/float64(time.Second):
		return Unbounded
	case math.IsInf(seconds, -1):
		return -Unbounded
	}

	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// FormatDuration renders a duration as "hh:mm:ss.mmm", or "end" for Unbounded.
func FormatDuration(d time.Duration) string {
	if d == Unbounded {
		return "end"
	}
	if d < 0 {
		return "-" + FormatDuration(-d)
	}

	ms := d.Milliseconds()

	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// PtsToTimeString converts time in 90kHz ticks to a string in "hh:mm:ss.mmm" format
func PtsToTimeString(pts int64) string {
	return FormatDuration(PtsToDuration(pts))
}
