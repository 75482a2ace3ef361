package platform

import "fmt"

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
	TimeFormat       = "%02d"
)

// DefaultDuration is shown when the duration is unknown
const DefaultDuration = "Unknown"

// FormatDuration renders seconds as HH:MM:SS
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return DefaultDuration
	}
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	return fmt.Sprintf(TimeFormat+":"+TimeFormat+":"+TimeFormat, hours, minutes, secs)
}
