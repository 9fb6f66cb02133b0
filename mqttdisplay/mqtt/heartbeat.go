package mqtt

import "time"

const defaultHeartbeat = 30 * time.Second

// heartbeatInterval returns d, or the default when d is not positive.
// time.NewTicker panics on a non-positive interval.
func heartbeatInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultHeartbeat
	}
	return d
}
