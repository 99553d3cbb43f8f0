package booking

import (
	"fmt"
	"math"
)

// RoundHours rounds an estimate to one decimal place.
func RoundHours(hours float64) float64 {
	return math.Round(hours*10) / 10
}

// Quote prices a repair as round(hours, 1) × rate, rounded to cents.
func Quote(hours, rate float64) float64 {
	return math.Round(RoundHours(hours)*rate*100) / 100
}

// FormatQuote renders an amount as dollars with two decimals.
func FormatQuote(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
