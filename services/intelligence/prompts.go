package intelligence

import (
	"fmt"
	"strings"

	"autoshop/models"
)

const systemPrompt = "You are an experienced automotive technician helping a car owner understand a problem. " +
	"Explain likely causes in plain language and say whether the owner can reasonably fix it themselves. " +
	"When the work needs tools, lifts or diagnostics a home mechanic would not have, tell them to schedule a repair at a shop."

// InitialPrompt composes the first user turn from the vehicle details.
func InitialPrompt(v *models.VehicleInfo, fault *models.FaultCodeDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My %s has the following issue: %s.", describeVehicle(v), strings.TrimSpace(v.Issue))
	if fault != nil && fault.Code != "" {
		if fault.Found {
			fmt.Fprintf(&b, " The car reports fault code %s, described as: %s.", fault.Code, fault.Description)
		} else {
			fmt.Fprintf(&b, " The car reports fault code %s.", fault.Code)
		}
	}
	b.WriteString(" What could be causing this, and should I fix it myself or have it repaired at a shop?")
	return b.String()
}
