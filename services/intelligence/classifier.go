package intelligence

import "strings"

var repairTriggers = []string{"repair at a shop", "schedule a repair"}

// RecommendsShopRepair reports whether a diagnosis reply tells the customer to bring the car in.
func RecommendsShopRepair(reply string) bool {
	lower := strings.ToLower(reply)
	for _, phrase := range repairTriggers {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
