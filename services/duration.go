package services

import (
	"math"
	"time"
)

// ElapsedMinutes is the whole number of minutes from from to to, floored.
// Non-positive spans are 0.
func ElapsedMinutes(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// MinutesToHours rounds half away from zero to two decimals. minutes/60
// never lands exactly on a half cent, so the rounding mode only matters for
// float noise.
func MinutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)*100/60) / 100
}

// SessionTotals computes worked minutes and hours for a closed interval.
// A break longer than the interval clamps the total to 0.
func SessionTotals(clockIn, clockOut time.Time, breakMinutes int) (int, float64) {
	minutes := ElapsedMinutes(clockIn, clockOut) - breakMinutes
	if minutes < 0 {
		minutes = 0
	}
	return minutes, MinutesToHours(minutes)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
