package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts integer milliseconds to a Duration.
func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// Us converts integer microseconds to a Duration.
func Us(n int) time.Duration { return time.Duration(n) * time.Microsecond }

// Micros returns d in fractional microseconds.
func Micros(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }

// Sleep waits for d or until ctx-like done fires; it reports false when done fired first.
func Sleep(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}
