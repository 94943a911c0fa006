package logger

import "time"

// Status renders an error as the status attribute: "fail" or "ok".
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	return "fail"
}

// RoundMS truncates noise below a millisecond; negative spans become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// Took is RoundMS(time.Since(start)).
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}
