package domain

import "strings"

// MechanicType selects which asset plan and code-generation strategy to use.
type MechanicType string

const (
	// MechanicWheel is a wheel-of-fortune spin mechanic.
	MechanicWheel MechanicType = "wheel"
	// MechanicBoxes is a pick-a-box mechanic.
	MechanicBoxes MechanicType = "boxes"
	// MechanicCrash is a crash/cash-out curve mechanic.
	MechanicCrash MechanicType = "crash"
	// MechanicSlots is a slot-reel mechanic.
	MechanicSlots MechanicType = "slots"
	// MechanicScratch is a scratch-card mechanic.
	MechanicScratch MechanicType = "scratch"
)

// ParseMechanicType maps a free-form tag to a known mechanic type, falling
// back to the wheel mechanic for unrecognized input.
func ParseMechanicType(value string) MechanicType {
	switch MechanicType(strings.ToLower(strings.TrimSpace(value))) {
	case MechanicBoxes:
		return MechanicBoxes
	case MechanicCrash:
		return MechanicCrash
	case MechanicSlots:
		return MechanicSlots
	case MechanicScratch:
		return MechanicScratch
	default:
		return MechanicWheel
	}
}
